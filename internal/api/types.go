package api

import "github.com/samcharles93/dsotools/pkg/dso"

const containerObject = "dso.container"

type ContainerResponse struct {
	ID        string      `json:"id"`
	Object    string      `json:"object"`
	Name      string      `json:"name,omitempty"`
	CreatedAt int64       `json:"created_at"`
	Summary   dso.Summary `json:"summary"`
}

type StringsResponse struct {
	ID      string   `json:"id"`
	Strings []string `json:"strings"`
}

type OperandsResponse struct {
	ID       string            `json:"id"`
	Operands []dso.OperandSite `json:"operands"`
}

type PatchRequest struct {
	Patches map[string]string `json:"patches"`
}

type PatchStats struct {
	Strings    int `json:"strings"`
	Operands   int `json:"operands"`
	References int `json:"references"`
}

type PatchResponse struct {
	ID      string      `json:"id"`
	Result  PatchStats  `json:"result"`
	Summary dso.Summary `json:"summary"`
}

type DeleteResponse struct {
	ID      string `json:"id"`
	Object  string `json:"object"`
	Deleted bool   `json:"deleted"`
}

type ResponseError struct {
	Message string `json:"message,omitempty"`
	Type    string `json:"type,omitempty"`
	Code    string `json:"code,omitempty"`
	Param   string `json:"param,omitempty"`
}
