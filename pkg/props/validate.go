package props

// Validate checks props against the contract.
// Present keys must conform to their type and required keys must be present.
// Keys the contract does not mention are accepted.
func Validate(contract Contract, values map[string]any) error {
	if len(contract) == 0 {
		return nil
	}

	var errs []error

	// Sorted keys keep error output stable.
	for _, key := range contract.Keys() {
		field := contract[key]
		value, exists := values[key]
		if !exists {
			if field.Required {
				errs = append(errs, &ValidationError{Key: key, Reason: "required"})
			}
			continue
		}
		if field.Type == nil {
			continue
		}
		if err := field.Type.Validate(value); err != nil {
			errs = append(errs, &ValidationError{
				Key:    key,
				Reason: err.Error(),
				Value:  value,
			})
		}
	}

	if len(errs) > 0 {
		return &AggregateError{Errors: errs}
	}
	return nil
}
