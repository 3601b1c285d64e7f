package cache

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStringKey(t *testing.T) {
	stringKey := &StringKey{}
	assert.Equal(t, "foo", stringKey.Marshal("foo"))
	key, err := stringKey.Unmarshal("foo")
	assert.Nil(t, err)
	assert.Equal(t, "foo", key)
}

func TestIntKey(t *testing.T) {
	intKey := &IntKey{}
	assert.Equal(t, "1", intKey.Marshal(1))
	key, err := intKey.Unmarshal("1")
	assert.Nil(t, err)
	assert.Equal(t, 1, key)

	_, err = intKey.Unmarshal("not-a-number")
	assert.NotNil(t, err)
}

func TestQueryKey(t *testing.T) {
	queryKey := &QueryKey{}

	q := Query{Locale: "de-DE", Term: "kaffee bohnen"}
	marshalled := queryKey.Marshal(q)
	assert.Equal(t, "de-DE/kaffee bohnen", marshalled)

	roundTripped, err := queryKey.Unmarshal(marshalled)
	assert.Nil(t, err)
	assert.Equal(t, q, roundTripped)

	// Terms may contain slashes; only the first one splits.
	q = Query{Locale: "en-US", Term: "16/8 fasting"}
	roundTripped, err = queryKey.Unmarshal(queryKey.Marshal(q))
	assert.Nil(t, err)
	assert.Equal(t, q, roundTripped)

	_, err = queryKey.Unmarshal("no-slash-here")
	assert.NotNil(t, err)
}
