package iam

import "embed"

//go:embed infrastructure/persistence/schema/iam-schema.sql
var SchemaFS embed.FS

const SchemaPath = "infrastructure/persistence/schema/iam-schema.sql"
