/*
Package dsl provides a fluent Go API for building page schemas in code.

It is useful for tests, seed data and templates generated at runtime,
where writing YAML by hand would be noisier than Go.

Example usage:

	b := dsl.New().Name("Landing Page")

	b.Add("header").Type("Header").
		Prop("title", "Acme").
		Editable("title")

	b.Add("hero").Type("Hero").
		Prop("title", "Welcome").
		Style("background", "#fff")

	form := b.Add("contact").Type("ContactForm")
	form.Child("email").Type("TextInput").Prop("label", "Email")

	schema, err := b.Build()
*/
package dsl
