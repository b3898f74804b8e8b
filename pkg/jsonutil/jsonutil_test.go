package jsonutil

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestIntAcceptsNumbersAndStrings(t *testing.T) {
	var doc struct {
		A Int `json:"a"`
		B Int `json:"b"`
		C Int `json:"c"`
		D Int `json:"d"`
	}
	err := json.Unmarshal([]byte(`{"a": 42, "b": "1024", "c": "", "d": "3.5"}`), &doc)
	require.NoError(t, err)
	require.Equal(t, int64(42), doc.A.Int64())
	require.Equal(t, int64(1024), doc.B.Int64())
	require.Equal(t, int64(0), doc.C.Int64())
	require.Equal(t, int64(3), doc.D.Int64())
}

func TestIntRejectsGarbage(t *testing.T) {
	var v Int
	err := json.Unmarshal([]byte(`"not a number"`), &v)
	require.Error(t, err)
}

func TestIntMarshalsAsNumber(t *testing.T) {
	out, err := json.Marshal(Int(8388))
	require.NoError(t, err)
	require.Equal(t, "8388", string(out))
}

func TestBoolAcceptsBooleansAndStrings(t *testing.T) {
	var doc struct {
		A Bool `json:"a"`
		B Bool `json:"b"`
		C Bool `json:"c"`
		D Bool `json:"d"`
	}
	err := json.Unmarshal([]byte(`{"a": true, "b": "true", "c": "false", "d": 1}`), &doc)
	require.NoError(t, err)
	require.True(t, doc.A.Value())
	require.True(t, doc.B.Value())
	require.False(t, doc.C.Value())
	require.True(t, doc.D.Value())
}

func TestBoolMarshalsAsBoolean(t *testing.T) {
	out, err := json.Marshal(Bool(true))
	require.NoError(t, err)
	require.Equal(t, "true", string(out))
}

func TestStringAcceptsBareNumbers(t *testing.T) {
	var doc struct {
		Dest String `json:"dest"`
		Addr String `json:"addr"`
	}
	err := json.Unmarshal([]byte(`{"dest": 8080, "addr": "127.0.0.1:80"}`), &doc)
	require.NoError(t, err)
	require.Equal(t, String("8080"), doc.Dest)
	require.Equal(t, String("127.0.0.1:80"), doc.Addr)
}
