package state

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAsOf_BinarySearchOverVersions(t *testing.T) {
	a := newApplier(t)
	a.apply(10, entity("1", "person", 10, map[string]string{"city": "Berlin"}))
	a.apply(50, version("1", 50, map[string]string{"city": "Vienna"}))

	v, err := a.st.AsOf("1", 30)
	require.NoError(t, err)
	assert.Equal(t, "Berlin", v.Attrs["city"])

	v, err = a.st.AsOf("1", 60)
	require.NoError(t, err)
	assert.Equal(t, "Vienna", v.Attrs["city"])

	// Exactly at a validity start the new version is already current.
	v, err = a.st.AsOf("1", 50)
	require.NoError(t, err)
	assert.Equal(t, "Vienna", v.Attrs["city"])
}

func TestAsOf_BeforeFirstVersion(t *testing.T) {
	a := newApplier(t)
	a.apply(10, entity("1", "person", 10, nil))

	_, err := a.st.AsOf("1", 5)
	require.Error(t, err)
	assert.Equal(t, ErrCodeNoVersionAtTime, CodeOf(err))
}

func TestAsOf_UnknownEntity(t *testing.T) {
	a := newApplier(t)
	a.apply(10, entity("1", "person", 10, nil))

	_, err := a.st.AsOf("99", 30)
	require.Error(t, err)
	assert.Equal(t, ErrCodeUnknownEntity, CodeOf(err))
}

func TestHistory_ReturnsCopy(t *testing.T) {
	a := newApplier(t)
	a.apply(10, entity("1", "person", 10, map[string]string{"k": "v"}))

	hist, err := a.st.History("1")
	require.NoError(t, err)
	hist[0].ValidFrom = 999

	again, err := a.st.History("1")
	require.NoError(t, err)
	assert.Equal(t, int64(10), again[0].ValidFrom, "mutating the returned slice must not touch the store")
}
