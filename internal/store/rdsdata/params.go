// Package rdsdata implements internal/store.Store against the AWS RDS
// Data API, the HTTP+IAM-authenticated path to the Aurora Serverless
// Postgres cluster named by the DB_RESOURCE_ARN/DB_SECRET_ARN/DB_NAME
// environment triplet (spec §6) — this core never opens a direct TCP
// connection to Postgres from the request path.
package rdsdata

import (
	"encoding/json"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/rdsdata/types"
	"github.com/google/uuid"
)

// uuidParam builds a named string-typed SqlParameter from a uuid.UUID.
func uuidParam(name string, v uuid.UUID) types.SqlParameter {
	return types.SqlParameter{
		Name:  aws.String(name),
		Value: &types.FieldMemberStringValue{Value: v.String()},
	}
}

// nullableUUIDParam builds a named parameter that is SQL NULL when v is nil.
func nullableUUIDParam(name string, v *uuid.UUID) types.SqlParameter {
	if v == nil {
		return types.SqlParameter{Name: aws.String(name), Value: &types.FieldMemberIsNull{Value: true}}
	}
	return uuidParam(name, *v)
}

func stringParam(name, v string) types.SqlParameter {
	return types.SqlParameter{Name: aws.String(name), Value: &types.FieldMemberStringValue{Value: v}}
}

func nullableStringParam(name string, v *string) types.SqlParameter {
	if v == nil || *v == "" {
		return types.SqlParameter{Name: aws.String(name), Value: &types.FieldMemberIsNull{Value: true}}
	}
	return stringParam(name, *v)
}

func longParam(name string, v int64) types.SqlParameter {
	return types.SqlParameter{Name: aws.String(name), Value: &types.FieldMemberLongValue{Value: v}}
}

func doubleParam(name string, v float64) types.SqlParameter {
	return types.SqlParameter{Name: aws.String(name), Value: &types.FieldMemberDoubleValue{Value: v}}
}

func boolParam(name string, v bool) types.SqlParameter {
	return types.SqlParameter{Name: aws.String(name), Value: &types.FieldMemberBooleanValue{Value: v}}
}

// timestampParam renders a time.Time as the "YYYY-MM-DD HH:MM:SS.sss"
// text format the Data API expects for TIMESTAMP columns, and marks the
// type hint explicitly since the API cannot otherwise infer it from a
// plain string value.
func timestampParam(name string, v time.Time) types.SqlParameter {
	return types.SqlParameter{
		Name:     aws.String(name),
		Value:    &types.FieldMemberStringValue{Value: v.UTC().Format("2006-01-02 15:04:05.000")},
		TypeHint: types.TypeHintTimestamp,
	}
}

func nullableTimestampParam(name string, v *time.Time) types.SqlParameter {
	if v == nil {
		return types.SqlParameter{Name: aws.String(name), Value: &types.FieldMemberIsNull{Value: true}}
	}
	return timestampParam(name, *v)
}

// jsonParam marshals v and sends it with the JSON type hint so Postgres
// casts the text payload into a jsonb column.
func jsonParam(name string, v interface{}) (types.SqlParameter, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return types.SqlParameter{}, err
	}
	return types.SqlParameter{
		Name:     aws.String(name),
		Value:    &types.FieldMemberStringValue{Value: string(raw)},
		TypeHint: types.TypeHintJson,
	}, nil
}

func rawJSONParam(name string, v json.RawMessage) types.SqlParameter {
	payload := string(v)
	if payload == "" {
		payload = "null"
	}
	return types.SqlParameter{
		Name:     aws.String(name),
		Value:    &types.FieldMemberStringValue{Value: payload},
		TypeHint: types.TypeHintJson,
	}
}

// stringArrayParam renders a []string as a JSON array; list columns
// such as etiquetas and recipients are jsonb in the migrations, which
// avoids the Data API's lack of native array parameter support.
func stringArrayParam(name string, v []string) (types.SqlParameter, error) {
	if v == nil {
		v = []string{}
	}
	return jsonParam(name, v)
}
