package roster

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/okhotin/tgherd/internal/domain"
)

func TestRenderRoster(t *testing.T) {
	output, err := Render([]Entry{
		{
			Profile:   domain.AccountProfile{UserID: 1, FirstName: "Grace", LastName: "Hopper", Session: "a.session"},
			Proxy:     "socks5://proxy-a:1080",
			SendsNext: true,
		},
		{
			Profile: domain.AccountProfile{UserID: 2, Username: "bob", Session: "b.session"},
			Viewing: true,
		},
	}, RenderOptions{Mode: "sequential", AutoDispatch: true})

	require.NoError(t, err)
	assert.Contains(t, output, "accounts: 2")
	assert.Contains(t, output, "mode: sequential")
	assert.Contains(t, output, "dispatch: auto")
	assert.Contains(t, output, "Grace Hopper")
	assert.Contains(t, output, "(id 1)")
	assert.Contains(t, output, "via socks5://proxy-a:1080")
	assert.Contains(t, output, "<- sends next")
	assert.Contains(t, output, "@bob")
	assert.Contains(t, output, "direct")
	assert.Contains(t, output, "[viewing]")
}

func TestRenderRosterAutoOff(t *testing.T) {
	output, err := Render([]Entry{
		{Profile: domain.AccountProfile{UserID: 1, Display: "One", Session: "a.session"}},
	}, RenderOptions{Mode: "manual", AutoDispatch: false, Cached: true})

	require.NoError(t, err)
	assert.Contains(t, output, "dispatch: viewing-account")
	assert.Contains(t, output, "cached roster")
}

func TestRenderEmptyRoster(t *testing.T) {
	output, err := Render(nil, RenderOptions{Mode: "sequential", AutoDispatch: true})

	require.NoError(t, err)
	assert.Contains(t, output, "accounts: 0")
	assert.Contains(t, output, "No accounts loaded")
}
