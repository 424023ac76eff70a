package validation

// CreateLoanSchema validates create-loan-application job variables.
const CreateLoanSchema = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "object",
  "required": ["userId", "annualIncome", "loanAmount", "systemCapacityKw", "state"],
  "properties": {
    "userId":           {"type": "string", "minLength": 1},
    "annualIncome":     {"type": "number", "exclusiveMinimum": 0},
    "existingLoans":    {"type": "number", "minimum": 0},
    "existingEmi":      {"type": "number", "minimum": 0},
    "loanAmount":       {"type": "number", "exclusiveMinimum": 0, "maximum": 10000000},
    "loanTenureYears":  {"type": "integer", "minimum": 1, "maximum": 30},
    "interestRate":     {"type": "number", "minimum": 0, "maximum": 36},
    "systemCapacityKw": {"type": "number", "exclusiveMinimum": 0, "maximum": 1000},
    "roofAreaSqft":     {"type": "number", "minimum": 0},
    "state":            {"type": "string", "minLength": 2},
    "systemType":       {"type": "string", "enum": ["residential", "commercial"]},
    "panNumber":        {"type": "string", "pattern": "^[A-Z]{5}[0-9]{4}[A-Z]$"}
  }
}`

// UpdateLoanSchema validates the patch in update-loan-application job variables.
const UpdateLoanSchema = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "object",
  "required": ["loanId", "userId", "changes"],
  "properties": {
    "loanId":  {"type": "string", "minLength": 1},
    "userId":  {"type": "string", "minLength": 1},
    "changes": {
      "type": "object",
      "minProperties": 1,
      "additionalProperties": false,
      "properties": {
        "annual_income":      {"type": "number", "exclusiveMinimum": 0},
        "existing_loans":     {"type": "number", "minimum": 0},
        "loan_amount":        {"type": "number", "exclusiveMinimum": 0, "maximum": 10000000},
        "loan_tenure_years":  {"type": "integer", "minimum": 1, "maximum": 30},
        "interest_rate":      {"type": "number", "minimum": 0, "maximum": 36},
        "system_capacity_kw": {"type": "number", "exclusiveMinimum": 0, "maximum": 1000},
        "roof_area_sqft":     {"type": "number", "minimum": 0},
        "state":              {"type": "string", "minLength": 2},
        "system_type":        {"type": "string", "enum": ["residential", "commercial"]},
        "pan_number":         {"type": "string", "pattern": "^[A-Z]{5}[0-9]{4}[A-Z]$"}
      }
    }
  }
}`
