// Package props provides the per-component prop contracts kept in the registry.
//
// Node props are an open bag of JSON-shaped values. A Contract names the keys a
// component understands and the shape each one must have:
//
//	contract := props.Contract{
//	    "title":    {Type: props.String(), Required: true},
//	    "subtitle": {Type: props.String()},
//	    "links":    {Type: props.Slice(props.Object())},
//	}
//
//	if err := props.Validate(contract, node.Props); err != nil {
//	    // err is an *AggregateError of *ValidationError
//	}
//
// Keys missing from the contract are allowed. Contracts can also be parsed from
// the compact notation used in catalog files, where a trailing "!" marks a
// required key:
//
//	contract, err := props.ParseContract(map[string]string{
//	    "title": "string!",
//	    "links": "[object]",
//	})
package props
