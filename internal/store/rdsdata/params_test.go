package rdsdata

import (
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/rdsdata/types"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUuidParam(t *testing.T) {
	id := uuid.New()
	p := uuidParam("term_id", id)
	assert.Equal(t, "term_id", *p.Name)
	v, ok := p.Value.(*types.FieldMemberStringValue)
	require.True(t, ok)
	assert.Equal(t, id.String(), v.Value)
}

func TestNullableUUIDParam_Nil(t *testing.T) {
	p := nullableUUIDParam("term_id", nil)
	v, ok := p.Value.(*types.FieldMemberIsNull)
	require.True(t, ok)
	assert.True(t, v.Value)
}

func TestNullableStringParam_EmptyIsNull(t *testing.T) {
	empty := ""
	p := nullableStringParam("reason", &empty)
	_, ok := p.Value.(*types.FieldMemberIsNull)
	assert.True(t, ok)

	p = nullableStringParam("reason", nil)
	_, ok = p.Value.(*types.FieldMemberIsNull)
	assert.True(t, ok)
}

func TestTimestampParam_Format(t *testing.T) {
	when := time.Date(2026, 3, 1, 9, 30, 0, 0, time.FixedZone("CLT", -3*3600))
	p := timestampParam("published_at", when)
	assert.Equal(t, types.TypeHintTimestamp, p.TypeHint)
	v, ok := p.Value.(*types.FieldMemberStringValue)
	require.True(t, ok)
	assert.Equal(t, "2026-03-01 12:30:00.000", v.Value)
}

func TestJsonParam_MarshalsAndHints(t *testing.T) {
	p, err := jsonParam("definition", map[string]string{"value": "outage"})
	require.NoError(t, err)
	assert.Equal(t, types.TypeHintJson, p.TypeHint)
	v, ok := p.Value.(*types.FieldMemberStringValue)
	require.True(t, ok)
	assert.Contains(t, v.Value, "outage")
}

func TestRawJSONParam_EmptyDefaultsToNullLiteral(t *testing.T) {
	p := rawJSONParam("metrics", nil)
	v, ok := p.Value.(*types.FieldMemberStringValue)
	require.True(t, ok)
	assert.Equal(t, "null", v.Value)
}

func TestStringArrayParam_NilBecomesEmptyArray(t *testing.T) {
	p, err := stringArrayParam("etiquetas", nil)
	require.NoError(t, err)
	v, ok := p.Value.(*types.FieldMemberStringValue)
	require.True(t, ok)
	assert.Equal(t, "[]", v.Value)
}

func TestStringArrayParam_RendersJSONArray(t *testing.T) {
	p, err := stringArrayParam("etiquetas", []string{"red", "blue"})
	require.NoError(t, err)
	v, ok := p.Value.(*types.FieldMemberStringValue)
	require.True(t, ok)
	assert.Equal(t, `["red","blue"]`, v.Value)
}
