// internal/workers/catalog/catalog-query/models.go
package catalogquery

type Input struct {
	QueryType string                 `json:"queryType"`
	Params    map[string]interface{} `json:"params"`
}

type Output struct {
	QueryType string      `json:"queryType"`
	Result    interface{} `json:"result"`
	Count     int         `json:"count"`
}
