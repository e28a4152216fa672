package runtime

// Env describes the host the process runs on.
type Env struct {
	Docker      bool
	Kubernetes  bool
	ContainerID string
}

func (env Env) Containerized() bool {
	return env.Docker || env.Kubernetes || len(env.ContainerID) > 0
}

func (env Env) Platform() string {
	switch {
	case env.Kubernetes:
		return "kubernetes"
	case env.Docker:
		return "docker"
	case len(env.ContainerID) > 0:
		return "container"
	}
	return "host"
}

// LoadEnv probes the filesystem of the current host.
func LoadEnv() Env {
	return defaultProbe.load()
}
