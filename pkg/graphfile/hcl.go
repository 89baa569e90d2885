package graphfile

import (
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
)

// hclGraphFile HCL 文件的顶层结构
type hclGraphFile struct {
	Nodes []*hclNode `hcl:"node,block"`
}

type hclNode struct {
	ID      string   `hcl:"id,label"`
	Parents []string `hcl:"parents,optional"`
	File    string   `hcl:"file,optional"`
	Action  string   `hcl:"action,optional"`
	Shell   string   `hcl:"shell,optional"`
	Command []string `hcl:"command,optional"`
	Dir     string   `hcl:"dir,optional"`
}

// ParseHCL 解析 HCL 格式的图声明
//
//	node "app" {
//	  parents = ["lib"]
//	  shell   = "go build ./..."
//	}
func ParseHCL(data []byte, filename string) (*Spec, error) {
	parser := hclparse.NewParser()
	file, diags := parser.ParseHCL(data, filename)
	if diags.HasErrors() {
		return nil, diags
	}

	var parsed hclGraphFile
	if diags := gohcl.DecodeBody(file.Body, nil, &parsed); diags.HasErrors() {
		return nil, diags
	}

	spec := &Spec{Nodes: make([]NodeSpec, 0, len(parsed.Nodes))}
	for _, n := range parsed.Nodes {
		spec.Nodes = append(spec.Nodes, NodeSpec{
			ID:      n.ID,
			Parents: n.Parents,
			File:    n.File,
			Action:  n.Action,
			Shell:   n.Shell,
			Command: n.Command,
			Dir:     n.Dir,
		})
	}
	return spec, nil
}
