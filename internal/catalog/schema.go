// internal/catalog/schema.go
package catalog

// careerSchema validates the catalog file before anything is parsed into
// domain types. Violations surface as CATALOG_LOAD_ERROR.
const careerSchema = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "object",
  "required": ["careers"],
  "properties": {
    "version": {"type": "string"},
    "careers": {
      "type": "array",
      "items": {
        "type": "object",
        "required": ["id", "name", "category", "audience"],
        "properties": {
          "id": {"type": "integer", "minimum": 0},
          "name": {"type": "string", "minLength": 1},
          "category": {"type": "string", "minLength": 1},
          "description": {"type": "string"},
          "salary": {"type": "string"},
          "audience": {
            "type": "array",
            "items": {"type": "string", "minLength": 1},
            "minItems": 1
          },
          "worksWithPeople": {"type": "boolean"},
          "riskTolerant": {"type": "boolean"},
          "tags": {
            "type": "array",
            "items": {"type": "string"}
          }
        },
        "additionalProperties": false
      }
    }
  }
}`

type catalogFile struct {
	Version string          `json:"version"`
	Careers []careerRecord  `json:"careers"`
}

type careerRecord struct {
	ID              int      `json:"id"`
	Name            string   `json:"name"`
	Category        string   `json:"category"`
	Description     string   `json:"description"`
	Salary          string   `json:"salary"`
	Audience        []string `json:"audience"`
	WorksWithPeople bool     `json:"worksWithPeople"`
	RiskTolerant    bool     `json:"riskTolerant"`
	Tags            []string `json:"tags"`
}
