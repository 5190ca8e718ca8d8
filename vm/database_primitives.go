package vm

import (
	"database/sql"

	_ "modernc.org/sqlite"
)

// ---------------------------------------------------------------------------
// Database Primitives
//
// Database open: 'path' opens a sqlite database; ':memory:' works. Query
// rows come back as an Array of Dictionaries keyed by column name.
// ---------------------------------------------------------------------------

func (vm *VM) registerDatabasePrimitives() {
	c := vm.DatabaseClass.Instance

	vm.DatabaseClass.Meta.AddMethod1("open:", func(vm *VM, recv Object, path Object) (Object, error) {
		p, err := vm.stringArg(path)
		if err != nil {
			return Object{}, err
		}
		db, err := sql.Open("sqlite", p)
		if err != nil {
			return Object{}, errorf("Cannot open database %s: %v", p, err)
		}
		if p == ":memory:" {
			// Each pooled connection would get its own empty database.
			db.SetMaxOpenConns(1)
		}
		if err := db.Ping(); err != nil {
			db.Close()
			return Object{}, errorf("Cannot open database %s: %v", p, err)
		}
		log.Debugf("opened database %s", p)
		return Object{vt: vm.DatabaseClass.Instance, data: &Database{path: p, db: db}}, nil
	})

	c.AddMethod1("execute:", func(vm *VM, recv Object, stmt Object) (Object, error) {
		return vm.dbExecute(recv, stmt, Object{})
	})
	c.AddMethod2("execute:with:", func(vm *VM, recv Object, stmt, params Object) (Object, error) {
		return vm.dbExecute(recv, stmt, params)
	})
	c.AddMethod1("query:", func(vm *VM, recv Object, stmt Object) (Object, error) {
		return vm.dbQuery(recv, stmt, Object{})
	})
	c.AddMethod2("query:with:", func(vm *VM, recv Object, stmt, params Object) (Object, error) {
		return vm.dbQuery(recv, stmt, params)
	})
	c.AddMethod0("close", func(vm *VM, recv Object) (Object, error) {
		d := recv.data.(*Database)
		if d.db != nil {
			d.db.Close()
			d.db = nil
		}
		return vm.Nil(), nil
	})
	c.AddMethod0("path", func(vm *VM, recv Object) (Object, error) {
		return vm.NewString(recv.data.(*Database).path), nil
	})
}

func (vm *VM) openDB(recv Object) (*sql.DB, error) {
	d := recv.data.(*Database)
	if d.db == nil {
		return nil, errorf("Database %s is closed", d.path)
	}
	return d.db, nil
}

// dbExecute runs a statement and answers the number of affected rows.
func (vm *VM) dbExecute(recv, stmt, params Object) (Object, error) {
	db, err := vm.openDB(recv)
	if err != nil {
		return Object{}, err
	}
	query, args, err := vm.sqlArgs(stmt, params)
	if err != nil {
		return Object{}, err
	}
	res, err := db.Exec(query, args...)
	if err != nil {
		return Object{}, errorf("SQL error: %v", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return vm.Int(0), nil
	}
	return vm.Int(n), nil
}

func (vm *VM) dbQuery(recv, stmt, params Object) (Object, error) {
	db, err := vm.openDB(recv)
	if err != nil {
		return Object{}, err
	}
	query, args, err := vm.sqlArgs(stmt, params)
	if err != nil {
		return Object{}, err
	}
	rows, err := db.Query(query, args...)
	if err != nil {
		return Object{}, errorf("SQL error: %v", err)
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return Object{}, errorf("SQL error: %v", err)
	}
	var out []Object
	for rows.Next() {
		raw := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range raw {
			ptrs[i] = &raw[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return Object{}, errorf("SQL error: %v", err)
		}
		row := vm.NewDictionary()
		d := row.DictionaryData()
		for i, col := range cols {
			d.Put(vm.NewString(col), vm.fromSQL(raw[i]))
		}
		out = append(out, row)
	}
	if err := rows.Err(); err != nil {
		return Object{}, errorf("SQL error: %v", err)
	}
	return vm.NewArray(out), nil
}

func (vm *VM) sqlArgs(stmt, params Object) (string, []any, error) {
	query, err := vm.stringArg(stmt)
	if err != nil {
		return "", nil, err
	}
	if !params.Valid() {
		return query, nil, nil
	}
	items, ok := params.AsArray()
	if !ok {
		return "", nil, typeError(vm.ArrayClass.Instance, params)
	}
	args := make([]any, len(items))
	for i, item := range items {
		switch v := item.data.(type) {
		case nil, bool, int64, float64:
			args[i] = v
		case *String:
			args[i] = v.Get()
		default:
			return "", nil, errorf("Cannot bind %s as a SQL parameter", vm.Describe(item))
		}
	}
	return query, args, nil
}

func (vm *VM) fromSQL(v any) Object {
	switch x := v.(type) {
	case nil:
		return vm.Nil()
	case int64:
		return vm.Int(x)
	case float64:
		return vm.Float(x)
	case bool:
		return vm.Bool(x)
	case string:
		return vm.NewString(x)
	case []byte:
		return vm.NewString(string(x))
	}
	return vm.NewString(describeSQL(v))
}

func describeSQL(v any) string {
	if s, ok := v.(interface{ String() string }); ok {
		return s.String()
	}
	return ""
}
