package query

import (
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/magabrotheeeer/clubhouse/internal/models"
)

func TestParse(t *testing.T) {
	values, err := url.ParseQuery("tier=member&is_member=true&level=3&bad_level=-1&bad_bool=maybe&bad_tier=gold")
	require.NoError(t, err)

	tier, err := Tier(values, "tier")
	require.NoError(t, err)
	assert.Equal(t, models.TierMember, *tier)

	member, err := Bool(values, "is_member")
	require.NoError(t, err)
	assert.True(t, *member)

	level, err := Int(values, "level")
	require.NoError(t, err)
	assert.Equal(t, 3, *level)

	missing, err := Int(values, "offset")
	require.NoError(t, err)
	assert.Nil(t, missing)

	_, err = Int(values, "bad_level")
	assert.EqualError(t, err, "parameter bad_level must be a non-negative integer")

	_, err = Bool(values, "bad_bool")
	assert.Error(t, err)

	_, err = Tier(values, "bad_tier")
	assert.Error(t, err)
}
