//go:build linux
// +build linux

package runtime

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"regexp"
)

// A container env has no '/dev/block' by default, and docker drops a
// '/.dockerenv' marker into the root. Kubernetes mounts the namespace of
// the service account.
type envProbe struct {
	dockerEnvPath   string
	dockerBlockPath string
	k8sNSPath       string
	cgroupPath      string
}

var defaultProbe = envProbe{
	dockerEnvPath:   "/.dockerenv",
	dockerBlockPath: "/dev/block",
	k8sNSPath:       "/var/run/secrets/kubernetes.io/serviceaccount/namespace",
	cgroupPath:      "/proc/self/cgroup",
}

func (p envProbe) load() Env {
	return Env{
		Docker:      p.isDocker(),
		Kubernetes:  p.isKubernetes(),
		ContainerID: p.containerID(),
	}
}

func (p envProbe) isDocker() bool {
	stat, err := os.Stat(p.dockerEnvPath)
	if err != nil {
		if !os.IsNotExist(err) {
			return false
		}
		_, err = os.Stat(p.dockerBlockPath)
		return err != nil && os.IsNotExist(err)
	}
	return !stat.IsDir()
}

func (p envProbe) isKubernetes() bool {
	stat, err := os.Stat(p.k8sNSPath)
	if err != nil {
		return false
	}
	return !stat.IsDir() && stat.Size() > 0
}

func (p envProbe) containerID() string {
	f, err := os.Open(p.cgroupPath)
	if err != nil {
		return ""
	}
	defer f.Close()
	return parseContainerID(f)
}

const (
	uuidSource      = "[0-9a-f]{8}[-_][0-9a-f]{4}[-_][0-9a-f]{4}[-_][0-9a-f]{4}[-_][0-9a-f]{12}|[0-9a-f]{8}(?:-[0-9a-f]{4}){4}$"
	containerSource = "[0-9a-f]{64}"
	taskSource      = "[0-9a-f]{32}-\\d+"
)

var (
	// 0::/kubepods.slice/kubepods-besteffort.slice/kubepods-besteffort-pod<uid>.slice/cri-containerd-<id>.scope
	cgroupLineRegex  = regexp.MustCompile(`^\d+:[^:]*:(.+)$`)
	containerIDRegex = regexp.MustCompile(fmt.Sprintf(`(%s|%s|%s)(?:.scope)?$`, uuidSource, containerSource, taskSource))
)

func parseContainerID(r io.Reader) string {
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		path := cgroupLineRegex.FindStringSubmatch(scanner.Text())
		if len(path) != 2 {
			continue
		}
		if parts := containerIDRegex.FindStringSubmatch(path[1]); len(parts) == 2 {
			return parts[1]
		}
	}
	return ""
}
