// Package config describes a tabula run in YAML.
//
// A Config names the tables to load (CSV files or inline data), the dataset
// query to derive over them and the output format:
//
//	name: sales
//	logging:
//	  level: info
//	tables:
//	  - name: orders
//	    path: ${DATA_DIR:-./data}/orders.csv
//	    types:
//	      amount: float
//	  - name: customers
//	    path: ${DATA_DIR:-./data}/customers.csv
//	query:
//	  table: orders
//	  joins:
//	    - {table: customers, column: id, target: orders, target_column: customer_id}
//	  filters:
//	    - {table: customers, column: country, op: eq, value: NZ}
//	  group_by:
//	    - {table: orders, column: customer_id, method: sum}
//	output:
//	  format: json
//
// # Environment Variable Substitution
//
// ${VAR_NAME} is replaced by the variable's value before parsing, and
// ${VAR_NAME:-fallback} falls back when the variable is unset or empty.
//
// # Validation
//
// LoadFile applies Default, loads the file and calls Validate. Validation
// errors carry errors.ErrorTypeConfig. Column names are not checked here;
// the dataset rejects unknown columns when the query is built.
package config
