//go:build linux
// +build linux

package runtime

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseContainerID(t *testing.T) {
	testcases := []struct {
		name   string
		cgroup string
		id     string
	}{
		{
			name:   "containerd",
			cgroup: "0::/kubepods.slice/kubepods-besteffort.slice/kubepods-besteffort-pode6ac4a8d_1076_453e_9ddb_3976520e3178.slice/cri-containerd-19cd7a809d879d9c855bb93e4d399efe795a769ac856faaa5256cdd8387fe4b1.scope",
			id:     "19cd7a809d879d9c855bb93e4d399efe795a769ac856faaa5256cdd8387fe4b1",
		},
		{
			name:   "docker",
			cgroup: "12:memory:/docker/3f4a9c0e1b2d3f4a9c0e1b2d3f4a9c0e1b2d3f4a9c0e1b2d3f4a9c0e1b2d3f4a\n",
			id:     "3f4a9c0e1b2d3f4a9c0e1b2d3f4a9c0e1b2d3f4a9c0e1b2d3f4a9c0e1b2d3f4a",
		},
		{
			name:   "ecs task",
			cgroup: "1:name=systemd:/ecs/0123456789abcdef0123456789abcdef-1234567890",
			id:     "0123456789abcdef0123456789abcdef-1234567890",
		},
		{
			name:   "host",
			cgroup: "0::/user.slice/user-1000.slice/session-2.scope\n",
		},
		{
			name:   "garbage",
			cgroup: "not a cgroup line",
		},
	}
	for _, tc := range testcases {
		t.Run(tc.name, func(tt *testing.T) {
			require.Equal(tt, tc.id, parseContainerID(strings.NewReader(tc.cgroup)))
		})
	}
}

func TestEnvProbe(t *testing.T) {
	dir := t.TempDir()
	probe := envProbe{
		dockerEnvPath:   filepath.Join(dir, ".dockerenv"),
		dockerBlockPath: dir,
		k8sNSPath:       filepath.Join(dir, "namespace"),
		cgroupPath:      filepath.Join(dir, "cgroup"),
	}
	env := probe.load()
	require.False(t, env.Containerized())
	require.Equal(t, "host", env.Platform())

	require.NoError(t, os.WriteFile(probe.dockerEnvPath, nil, 0o600))
	require.NoError(t, os.WriteFile(probe.k8sNSPath, []byte("default"), 0o600))
	require.NoError(t, os.WriteFile(probe.cgroupPath,
		[]byte("0::/docker/3f4a9c0e1b2d3f4a9c0e1b2d3f4a9c0e1b2d3f4a9c0e1b2d3f4a9c0e1b2d3f4a\n"), 0o600))
	env = probe.load()
	require.True(t, env.Docker)
	require.True(t, env.Kubernetes)
	require.Equal(t, "3f4a9c0e1b2d3f4a9c0e1b2d3f4a9c0e1b2d3f4a9c0e1b2d3f4a9c0e1b2d3f4a", env.ContainerID)
	require.Equal(t, "kubernetes", env.Platform())

	// without the marker and without block devices
	probe.dockerBlockPath = filepath.Join(dir, "block")
	require.NoError(t, os.Remove(probe.dockerEnvPath))
	require.True(t, probe.isDocker())
}
