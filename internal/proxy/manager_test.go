package proxy_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/user/lesson-harvester/internal/proxy"
)

func TestManager_GetProxy(t *testing.T) {
	t.Parallel()

	t.Run("rotates in order", func(t *testing.T) {
		t.Parallel()

		m := proxy.NewManager([]string{"http://p1:8080", "http://p2:8080"}, nil)
		assert.Equal(t, "http://p1:8080", m.GetProxy())
		assert.Equal(t, "http://p2:8080", m.GetProxy())
		assert.Equal(t, "http://p1:8080", m.GetProxy())
	})

	t.Run("no proxies means direct", func(t *testing.T) {
		t.Parallel()

		assert.Empty(t, proxy.NewManager(nil, nil).GetProxy())
	})
}

func TestManager_GetUserAgent(t *testing.T) {
	t.Parallel()

	m := proxy.NewManager(nil, []string{"agent/1"})
	assert.Equal(t, "agent/1", m.GetUserAgent())

	assert.Contains(t, proxy.NewManager(nil, nil).GetUserAgent(), "Chrome/")
}
