package graphfile

import (
	"gopkg.in/yaml.v3"
)

// ParseYAML 解析 YAML 格式的图声明
//
//	nodes:
//	  - id: app
//	    parents: [lib]
//	    shell: go build ./...
func ParseYAML(data []byte) (*Spec, error) {
	var spec Spec
	if err := yaml.Unmarshal(data, &spec); err != nil {
		return nil, err
	}
	return &spec, nil
}
