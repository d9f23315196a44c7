// Package builder produces query handles in the shape the default knex
// dialect reads.
//
// Statements are a small sealed IR compiled to parameterized SQL:
//
//	[Select|Insert|Update|Delete] → Compile → Query{Text, Args, Verb}
//
// Compiled text uses double-quoted identifiers and `?` placeholders, lists
// columns in sorted order, and never interpolates values:
//
//	select * from "users" where "id" = ?
//	insert into "users" ("name", "value") values (?, ?)
//	update "users" set "name" = ? where "id" = ?
//	delete from "users" where "id" = ?
//
// Delete statements report the verb "del", the spelling the normalizer
// canonicalises to "delete".
//
// Raw wraps SQL from anywhere else, and FromSqlizer adapts
// Masterminds/squirrel builders, whose unquoted output is read by the bare
// dialect.
package builder
