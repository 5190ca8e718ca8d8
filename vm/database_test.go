package vm

import "testing"

const dbSetup = `
let db = Database open: ':memory:'.
db execute: 'CREATE TABLE people (name TEXT, age INTEGER, score REAL)'.
db execute: 'INSERT INTO people VALUES (?, ?, ?)' with: ['ann', 31, 1.5].
db execute: 'INSERT INTO people VALUES (?, ?, ?)' with: ['bob', 27, nil].
`

func TestDatabase_Query(t *testing.T) {
	v := evalOK(t, dbSetup+"db query: 'SELECT name, age FROM people ORDER BY age'")
	wantDescribe(t, v, "[#{'name' -> 'bob', 'age' -> 27}, #{'name' -> 'ann', 'age' -> 31}]")
}

func TestDatabase_QueryWithParams(t *testing.T) {
	v := evalOK(t, dbSetup+"(db query: 'SELECT score FROM people WHERE name = ?' with: ['bob']) first at: 'score'")
	wantDescribe(t, v, "nil")

	v = evalOK(t, dbSetup+"((db query: 'SELECT score FROM people WHERE age > ?' with: [30]) first) at: 'score'")
	wantDescribe(t, v, "1.5")
}

func TestDatabase_RowsAffected(t *testing.T) {
	wantInt(t, evalOK(t, dbSetup+"db execute: 'UPDATE people SET age = age + 1'"), 2)
}

func TestDatabase_Errors(t *testing.T) {
	wantMessage(t, evalErr(t, dbSetup+"db query: 'SELECT * FROM nowhere'"), "SQL error")
	wantMessage(t, evalErr(t, dbSetup+"db close. db query: 'SELECT 1'"), "is closed")
	wantMessage(t, evalErr(t, dbSetup+"db execute: 'SELECT ?' with: [{ 1 }]"), "Cannot bind a Block")
}

func TestDatabase_Describe(t *testing.T) {
	wantDescribe(t, evalOK(t, "Database open: ':memory:'"), "a Database(:memory:)")
}
