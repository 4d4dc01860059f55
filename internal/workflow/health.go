package workflow

// ComponentHealth summarizes the readiness of one dependency of the service.
type ComponentHealth struct {
	Name   string
	Ready  bool
	Detail string
}

// HealthyComponent constructs a ready ComponentHealth record.
func HealthyComponent(name, detail string) ComponentHealth {
	return ComponentHealth{Name: name, Ready: true, Detail: detail}
}

// UnhealthyComponent constructs an unhealthy ComponentHealth record with context detail.
func UnhealthyComponent(name, detail string) ComponentHealth {
	return ComponentHealth{Name: name, Ready: false, Detail: detail}
}

// Health reports the plugin instances and generator backend the service was
// built with.
func (s *Service) Health() []ComponentHealth {
	out := make([]ComponentHealth, 0, 3)
	for _, entry := range []struct {
		name   string
		handle string
	}{
		{"importer", s.importer.Handle},
		{"transcriber", s.transcriber.Handle},
	} {
		if entry.handle == "" {
			out = append(out, UnhealthyComponent(entry.name, "plugin instance not resolved"))
			continue
		}
		out = append(out, HealthyComponent(entry.name, entry.handle))
	}
	if s.generator == nil {
		out = append(out, UnhealthyComponent("generator", "no backend configured"))
	} else {
		out = append(out, HealthyComponent("generator", s.generator.Backend()))
	}
	return out
}
