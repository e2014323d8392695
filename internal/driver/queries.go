package driver

// IndexQueries use Memgraph syntax; Neo4j accepts the same statements
// without the trailing semicolon being significant.
var IndexQueries = []string{
	"CREATE INDEX ON :Entity(uuid);",
	"CREATE INDEX ON :Entity(key);",
}

const (
	UpsertEntityNodeQuery = `
		UNWIND $nodes AS node
		MERGE (n:Entity {uuid: node.uuid})
		SET n.key = node.key,
			n.label = node.label,
			n.type = node.type,
			n.aliases = node.aliases
		RETURN count(n) AS count
	`

	UpsertRelationQuery = `
		UNWIND $edges AS edge
		MATCH (source:Entity {uuid: edge.source_uuid})
		MATCH (target:Entity {uuid: edge.target_uuid})
		MERGE (source)-[e:RELATES_TO {uuid: edge.uuid}]->(target)
		SET e.relation = edge.relation,
			e.confidence = edge.confidence,
			e.sources = edge.sources
		RETURN count(e) AS count
	`

	CountGraphQuery = `
		MATCH (n:Entity)
		OPTIONAL MATCH (n)-[e:RELATES_TO]->(:Entity)
		RETURN count(DISTINCT n) AS nodes, count(e) AS edges
	`

	DeleteGraphQuery = `
		MATCH (n:Entity)
		DETACH DELETE n
	`
)
