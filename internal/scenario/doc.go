// Package scenario runs query assertions described in fixture files.
//
// A fixture lists the calls a query hook received (inline, or by naming a
// capture session in a store) and the assertions to evaluate against them:
//
//	name: update_users
//	description: update filtered by id
//	dialect: knex
//	calls:
//	  - sql: 'update "users" set "name" = ? where "id" = ?'
//	    bindings: [Bo, 5]
//	assertions:
//	  - type: last_queried_with
//	    expect: {method: update, table: users, id: !regex '^5$', name: Bo}
//	  - type: queried_with
//	    sequence: [{method: update, table: users, id: 5, name: Bo}, null]
//
// Expected values follow the matcher rules: scalars are literals, mappings
// and lists are JSON expectations, `!regex <pattern>` or {$regex: pattern}
// is a pattern and `!date` or {$date: true} is the date sentinel. A null
// sequence entry is a hole.
//
// Fixtures may be YAML (.yaml, .yml) or CUE (.cue). CUE fixtures are
// evaluated and then decoded with the same strict rules as YAML; tags are
// unavailable there, so use the {$regex: ...} and {$date: true} forms.
//
// Each run records the calls on a fresh recorder stamped by a deterministic
// clock, so reports and golden files are reproducible.
package scenario
