package postgres

import (
	"reflect"
	"sync"
)

// Repositories map entities to rows through `db` struct tags. The two
// entry points below share one cached per-type field walk so repeated
// calls on hot paths stay cheap after the first reflection pass.

type fieldInfo struct {
	index int
	dbTag string
}

type typeMetadata struct {
	fields   []fieldInfo
	embedded []int
}

var typeCache sync.Map // reflect.Type -> *typeMetadata

func metadataFor(t reflect.Type) *typeMetadata {
	if t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	if cached, ok := typeCache.Load(t); ok {
		return cached.(*typeMetadata)
	}

	meta := &typeMetadata{}
	if t.Kind() == reflect.Struct {
		for i := 0; i < t.NumField(); i++ {
			field := t.Field(i)
			if field.Anonymous {
				meta.embedded = append(meta.embedded, i)
				continue
			}
			tag := field.Tag.Get("db")
			if tag == "" || tag == "-" {
				continue
			}
			meta.fields = append(meta.fields, fieldInfo{index: i, dbTag: tag})
		}
	}

	typeCache.Store(t, meta)
	return meta
}

// ExtractDBColumns lists the column names of T, embedded structs
// (entity.BaseCatalog, entity.BaseDocument) included. Called once per
// repository at construction.
//
//	ExtractDBColumns[accounts.Account]()
//	// ["id", "code", "name", "account_type", "parent_id", ...]
func ExtractDBColumns[T any]() []string {
	var zero T
	return columnsOf(reflect.TypeOf(zero))
}

func columnsOf(t reflect.Type) []string {
	if t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	if t.Kind() != reflect.Struct {
		return nil
	}

	meta := metadataFor(t)
	cols := make([]string, 0, len(meta.fields))
	for _, embIdx := range meta.embedded {
		cols = append(cols, columnsOf(t.Field(embIdx).Type)...)
	}
	for _, fi := range meta.fields {
		cols = append(cols, fi.dbTag)
	}
	return cols
}

// StructToMap flattens an entity into column -> value pairs for INSERT
// and UPDATE builders. Fields without a `db` tag (or tagged "-") are
// skipped.
func StructToMap(v any) map[string]any {
	rv := reflect.ValueOf(v)
	if rv.Kind() == reflect.Ptr {
		rv = rv.Elem()
	}
	if rv.Kind() != reflect.Struct {
		return nil
	}

	meta := metadataFor(rv.Type())
	res := make(map[string]any, len(meta.fields))

	for _, embIdx := range meta.embedded {
		for k, val := range StructToMap(rv.Field(embIdx).Interface()) {
			res[k] = val
		}
	}
	for _, fi := range meta.fields {
		res[fi.dbTag] = rv.Field(fi.index).Interface()
	}
	return res
}
