// Package strata is the persistence core of a headless content system:
// document types declared in schema files are turned into PostgreSQL
// tables, reconciled additively against a live database, and read back
// as typed document instances.
//
// # Basic Usage
//
// Open loads a schema directory, connects, migrates, and returns a Core:
//
//	import "github.com/strata-cms/strata"
//
//	core, err := strata.Open(ctx, "./schemas", database.Config{
//	    Host: "localhost",
//	    Name: "content",
//	    User: "strata",
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer core.Close()
//
//	articles, _ := core.Registry().Get(schema.NewDocumentTypeID("article"))
//	docs, err := core.Repository().Find(ctx, articles, repository.Query{Limit: 20})
//
// # Offline DDL
//
// The full creation script can be rendered without a database:
//
//	registry, err := schema.Load("./schemas")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	script, err := strata.DDL(registry, "public")
//
// # Subpackages
//
// Hosts that need finer control can use the subpackages directly:
//
//   - github.com/strata-cms/strata/schema - document type model and registry
//   - github.com/strata-cms/strata/layout - schema to table derivation
//   - github.com/strata-cms/strata/migrate - additive migration engine
//   - github.com/strata-cms/strata/query - SQL statement builder
//   - github.com/strata-cms/strata/repository - typed document reads
package strata
