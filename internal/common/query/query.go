package query

import (
	"regexp"
	"time"

	"charity-admin/internal/common/errs"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

const dateOnly = "2006-01-02"

// ParseDate accepts YYYY-MM-DD or RFC 3339.
func ParseDate(s string) (time.Time, error) {
	if t, err := time.Parse(dateOnly, s); err == nil {
		return t, nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, errs.Validation("Invalid date: " + s)
	}
	return t, nil
}

// ParseEndDate is ParseDate, except that a bare date means the end of that day.
func ParseEndDate(s string) (time.Time, error) {
	if t, err := time.Parse(dateOnly, s); err == nil {
		return t.Add(24*time.Hour - time.Nanosecond), nil
	}
	return ParseDate(s)
}

// DateRange builds a $gte/$lte condition from optional bounds. It returns nil
// when neither bound is set.
func DateRange(start, end string) (bson.M, error) {
	if start == "" && end == "" {
		return nil, nil
	}
	cond := bson.M{}
	if start != "" {
		t, err := ParseDate(start)
		if err != nil {
			return nil, err
		}
		cond["$gte"] = t
	}
	if end != "" {
		t, err := ParseEndDate(end)
		if err != nil {
			return nil, err
		}
		cond["$lte"] = t
	}
	return cond, nil
}

// ObjectID parses a hex id; malformed ids are reported as not found because
// no document can carry them.
func ObjectID(id, what string) (primitive.ObjectID, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return primitive.NilObjectID, errs.NotFound(what + " not found")
	}
	return oid, nil
}

// FilterID parses an id used as a list filter; malformed ids are a validation failure.
func FilterID(id, field string) (primitive.ObjectID, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return primitive.NilObjectID, errs.Validation("Invalid " + field + " id")
	}
	return oid, nil
}

// Search matches term as a case-insensitive substring of any of the fields.
func Search(term string, fields ...string) bson.A {
	rx := primitive.Regex{Pattern: regexp.QuoteMeta(term), Options: "i"}
	or := bson.A{}
	for _, f := range fields {
		or = append(or, bson.M{f: rx})
	}
	return or
}
