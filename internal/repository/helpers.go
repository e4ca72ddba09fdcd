package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/eatmeetclub/api/internal/database"
	"github.com/surrealdb/surrealdb.go/pkg/models"
)

var errUnexpectedFormat = errors.New("unexpected result format")

// decodeRecord turns one raw SurrealDB record into T. Record ids and
// datetimes are flattened to strings/time.Time first so the json tags on
// the model types apply.
func decodeRecord[T any](raw interface{}) (*T, error) {
	data, err := unwrapRecord(raw)
	if err != nil {
		return nil, err
	}

	jsonBytes, err := json.Marshal(normalizeMap(data))
	if err != nil {
		return nil, err
	}

	var out T
	if err := json.Unmarshal(jsonBytes, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// decodeRecords decodes every record returned by the first statement
func decodeRecords[T any](results []interface{}) ([]*T, error) {
	rows := statementRows(results, 0)
	out := make([]*T, 0, len(rows))
	for _, row := range rows {
		item, err := decodeRecord[T](row)
		if err != nil {
			return nil, err
		}
		out = append(out, item)
	}
	return out, nil
}

// statementRows returns the result rows of statement i
func statementRows(results []interface{}, i int) []interface{} {
	if i >= len(results) {
		return nil
	}
	switch v := results[i].(type) {
	case map[string]interface{}:
		if rows, ok := v["result"].([]interface{}); ok {
			return rows
		}
		if _, ok := v["status"]; !ok {
			return []interface{}{v}
		}
	case []interface{}:
		return v
	}
	return nil
}

func unwrapRecord(raw interface{}) (map[string]interface{}, error) {
	if raw == nil {
		return nil, database.ErrNotFound
	}
	if resp, ok := raw.(map[string]interface{}); ok {
		if _, hasStatus := resp["status"]; hasStatus {
			first, err := database.FirstRecord(resp)
			if err != nil {
				return nil, err
			}
			raw = first
		}
	}
	if arr, ok := raw.([]interface{}); ok {
		if len(arr) == 0 {
			return nil, database.ErrNotFound
		}
		raw = arr[0]
	}
	data, ok := raw.(map[string]interface{})
	if !ok {
		return nil, errUnexpectedFormat
	}
	return data, nil
}

func normalizeMap(m map[string]interface{}) map[string]interface{} {
	out := make(map[string]interface{}, len(m))
	for k, v := range m {
		out[k] = normalizeValue(v)
	}
	return out
}

func normalizeValue(v interface{}) interface{} {
	switch t := v.(type) {
	case models.RecordID, *models.RecordID:
		return convertSurrealID(t)
	case models.CustomDateTime:
		return t.Time
	case *models.CustomDateTime:
		if t == nil {
			return nil
		}
		return t.Time
	case map[string]interface{}:
		return normalizeMap(t)
	case []interface{}:
		out := make([]interface{}, len(t))
		for i, item := range t {
			out[i] = normalizeValue(item)
		}
		return out
	}
	return v
}

// convertSurrealID converts a SurrealDB record id to "table:id"
func convertSurrealID(id interface{}) string {
	switch v := id.(type) {
	case string:
		return v
	case models.RecordID:
		return fmt.Sprintf("%s:%v", v.Table, v.ID)
	case *models.RecordID:
		if v != nil {
			return fmt.Sprintf("%s:%v", v.Table, v.ID)
		}
		return ""
	case map[string]interface{}:
		if tb, ok := v["tb"].(string); ok {
			return fmt.Sprintf("%s:%v", tb, v["id"])
		}
	}
	return fmt.Sprintf("%v", id)
}

type createdRecord struct {
	ID        string
	CreatedOn time.Time
	UpdatedOn time.Time
}

// extractCreatedRecord reads id and timestamps from a CREATE result
func extractCreatedRecord(result []interface{}) (*createdRecord, error) {
	rows := statementRows(result, 0)
	if len(rows) == 0 {
		return nil, errors.New("no result returned")
	}
	data, ok := rows[0].(map[string]interface{})
	if !ok {
		return nil, errUnexpectedFormat
	}

	record := &createdRecord{ID: convertSurrealID(data["id"])}
	if t := getTime(data, "created_on"); t != nil {
		record.CreatedOn = *t
	}
	if t := getTime(data, "updated_on"); t != nil {
		record.UpdatedOn = *t
	}
	return record, nil
}

// extractCount reads `count() as cnt ... GROUP ALL` results
func extractCount(result []interface{}) int {
	rows := statementRows(result, 0)
	if len(rows) == 0 {
		return 0
	}
	if data, ok := rows[0].(map[string]interface{}); ok {
		return getInt(data, "cnt")
	}
	return 0
}

// getString extracts a string value from a map
func getString(m map[string]interface{}, key string) string {
	if v, ok := m[key].(string); ok {
		return v
	}
	return ""
}

// getInt extracts an int value from a map
func getInt(m map[string]interface{}, key string) int {
	return int(getInt64(m, key))
}

func getInt64(m map[string]interface{}, key string) int64 {
	switch v := m[key].(type) {
	case float64:
		return int64(v)
	case float32:
		return int64(v)
	case int:
		return int64(v)
	case int64:
		return v
	case uint64:
		return int64(v)
	case json.Number:
		n, _ := v.Int64()
		return n
	}
	return 0
}

// getTime extracts a time value from a map
func getTime(m map[string]interface{}, key string) *time.Time {
	switch v := m[key].(type) {
	case string:
		if t, err := time.Parse(time.RFC3339Nano, v); err == nil {
			return &t
		}
	case time.Time:
		return &v
	case models.CustomDateTime:
		t := v.Time
		return &t
	case *models.CustomDateTime:
		if v != nil {
			t := v.Time
			return &t
		}
	}
	return nil
}

// datetime formats t for a `<datetime>$var` cast
func datetime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

// optionalDatetime returns nil for a nil time so the field is cleared
func optionalDatetime(t *time.Time) interface{} {
	if t == nil {
		return nil
	}
	return datetime(*t)
}

// ptrToNone converts an optional string to its value or nil (NONE)
func ptrToNone(s *string) interface{} {
	if s == nil {
		return nil
	}
	return *s
}

// pageVars adds limit/offset vars, fetching one extra row to detect more pages
func pageVars(vars map[string]interface{}, limit, offset int) {
	vars["limit"] = limit + 1
	vars["offset"] = offset
}

// trimPage drops the look-ahead row and reports whether it existed
func trimPage[T any](items []*T, limit int) ([]*T, bool) {
	if len(items) > limit {
		return items[:limit], true
	}
	return items, false
}

// updateRecord SETs the given fields on one record and returns it. Field
// names come from services, never from request input. time.Time values are
// cast to datetimes; nil values clear the field.
func updateRecord[T any](ctx context.Context, db database.Database, id string, updates map[string]interface{}) (*T, error) {
	fields := make([]string, 0, len(updates))
	for field := range updates {
		fields = append(fields, field)
	}
	sort.Strings(fields)

	setClauses := []string{"updated_on = time::now()"}
	vars := map[string]interface{}{"id": id}
	for _, field := range fields {
		switch v := updates[field].(type) {
		case time.Time:
			setClauses = append(setClauses, fmt.Sprintf("%s = <datetime>$%s", field, field))
			vars[field] = datetime(v)
		case nil:
			setClauses = append(setClauses, fmt.Sprintf("%s = NONE", field))
		default:
			setClauses = append(setClauses, fmt.Sprintf("%s = $%s", field, field))
			vars[field] = v
		}
	}

	query := fmt.Sprintf(`UPDATE type::record($id) SET %s RETURN AFTER`, strings.Join(setClauses, ", "))

	result, err := db.QueryOne(ctx, query, vars)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return decodeRecord[T](result)
}
