package gateway_test

import (
	"encoding/json"
	"testing"

	"github.com/shoplane-labs/push-dispatch/internal/gateway"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestComposeBroadcast(t *testing.T) {
	p, err := gateway.Compose("Sale", "50% off", "", gateway.SegmentAll())
	require.NoError(t, err)

	assert.Equal(t, map[string]string{"en": "Sale"}, p.Headings)
	assert.Equal(t, map[string]string{"en": "50% off"}, p.Contents)
	assert.Equal(t, []string{"All"}, p.IncludedSegments)
	assert.Empty(t, p.IncludePlayerIDs)
}

func TestComposeTargeted(t *testing.T) {
	p, err := gateway.Compose("Sale", "50% off", "", gateway.ToPlayers([]string{"t1", "t2"}))
	require.NoError(t, err)

	assert.Equal(t, []string{"t1", "t2"}, p.IncludePlayerIDs)
	assert.Empty(t, p.IncludedSegments)
}

func TestComposeTargetedWithoutPlayers(t *testing.T) {
	_, err := gateway.Compose("Sale", "50% off", "", gateway.ToPlayers(nil))
	assert.ErrorIs(t, err, gateway.ErrNoTargets)
}

func TestComposeEmptyContent(t *testing.T) {
	_, err := gateway.Compose("  ", "50% off", "", gateway.SegmentAll())
	assert.ErrorIs(t, err, gateway.ErrEmptyContent)

	_, err = gateway.Compose("Sale", "", "", gateway.SegmentAll())
	assert.ErrorIs(t, err, gateway.ErrEmptyContent)
}

func TestComposeImageOmittedWhenEmpty(t *testing.T) {
	p, err := gateway.Compose("Sale", "50% off", "", gateway.SegmentAll())
	require.NoError(t, err)

	body, err := json.Marshal(p)
	require.NoError(t, err)
	assert.NotContains(t, string(body), "big_picture")

	p, err = gateway.Compose("Sale", "50% off", "http://x/img.png", gateway.SegmentAll())
	require.NoError(t, err)
	assert.Equal(t, "http://x/img.png", p.BigPicture)
}
