package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func Test_OverridesString(t *testing.T) {
	source := map[string]string{"ardana_ccn_flavor": "large", "ARDANA_EMPTY": ""}
	overrides := NewOverrides(source)

	value, ok := overrides.String("ARDANA_CCN_FLAVOR")
	assert.True(t, ok)
	assert.Equal(t, "large", value)

	_, ok = overrides.String("ARDANA_EMPTY")
	assert.False(t, ok)

	assert.Equal(t, "small", overrides.StringOr("ARDANA_MISSING", "small"))
	assert.Equal(t, "small", overrides.StringOr("ARDANA_EMPTY", "small"))

	source["ARDANA_CCN_FLAVOR"] = "changed"
	assert.Equal(t, "large", overrides.StringOr("ARDANA_CCN_FLAVOR", ""))
}

func Test_OverridesInt(t *testing.T) {
	testCases := []struct {
		name     string
		value    string
		expected int
		present  bool
		wantErr  bool
	}{
		{name: "absent", value: ""},
		{name: "number", value: "4096", expected: 4096, present: true},
		{name: "padded", value: " 8 ", expected: 8, present: true},
		{name: "negative", value: "-1", expected: -1, present: true},
		{name: "garbage", value: "lots", wantErr: true},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			overrides := NewOverrides(map[string]string{"KEY": tc.value})

			value, ok, err := overrides.Int("KEY")
			if tc.wantErr {
				assert.ErrorIs(t, err, ErrInvalidOverride)
				return
			}

			require.NoError(t, err)
			assert.Equal(t, tc.present, ok)
			assert.Equal(t, tc.expected, value)
		})
	}
}

func Test_OverridesFlag(t *testing.T) {
	overrides := NewOverrides(map[string]string{"ON": "1", "OFF": "0", "YES": "yes"})

	assert.True(t, overrides.Flag("ON"))
	assert.False(t, overrides.Flag("OFF"))
	assert.False(t, overrides.Flag("YES"))
	assert.False(t, overrides.Flag("MISSING"))
}

func Test_OverridesListAndFields(t *testing.T) {
	overrides := NewOverrides(map[string]string{
		"NODES": "compute1::compute2: ",
		"POOL":  "fd00::/64,,fd01::/64",
	})

	assert.Equal(t, []string{"compute1", "compute2"}, overrides.List("NODES", ":"))
	assert.Nil(t, overrides.List("MISSING", ":"))

	assert.Equal(t, []string{"fd00::/64", "", "fd01::/64"}, overrides.Fields("POOL", ","))
	assert.Nil(t, overrides.Fields("MISSING", ","))
}
