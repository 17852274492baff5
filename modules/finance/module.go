package finance

import "embed"

//go:embed infrastructure/persistence/schema/finance-schema.sql
var SchemaFS embed.FS

const SchemaPath = "infrastructure/persistence/schema/finance-schema.sql"
