package endpoint

import "sync"

// Properties is an Element that only records what it is given.
type Properties struct {
	mu     sync.Mutex
	values map[string]interface{}
}

func NewProperties() *Properties {
	return &Properties{values: map[string]interface{}{}}
}

func (p *Properties) SetProperty(name string, value interface{}) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.values[name] = value
}

func (p *Properties) Get(name string) (interface{}, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	value, ok := p.values[name]
	return value, ok
}

// All returns a copy of the recorded properties.
func (p *Properties) All() map[string]interface{} {
	p.mu.Lock()
	defer p.mu.Unlock()
	result := make(map[string]interface{}, len(p.values))
	for name, value := range p.values {
		result[name] = value
	}
	return result
}
