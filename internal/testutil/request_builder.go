package testutil

// RequestBuilder helps construct procurement request maps with fluent
// chaining for tests. Example:
//
//	req := NewRequestBuilder("circuit boards").Category("electronics").
//		Budget(50000).Build()
//
// Numeric fields are stored as float64 to match the JSON wire shape.
type RequestBuilder struct {
	fields map[string]any
}

// NewRequestBuilder creates a builder for a request naming the given item.
func NewRequestBuilder(item string) *RequestBuilder {
	return &RequestBuilder{fields: map[string]any{"item_description": item}}
}

// Category sets the procurement category (chainable).
func (b *RequestBuilder) Category(c string) *RequestBuilder {
	b.fields["category"] = c
	return b
}

// Quantity sets the requested quantity (chainable).
func (b *RequestBuilder) Quantity(q float64) *RequestBuilder {
	b.fields["quantity"] = q
	return b
}

// Budget sets the total budget (chainable).
func (b *RequestBuilder) Budget(amount float64) *RequestBuilder {
	b.fields["budget"] = amount
	return b
}

// Urgency sets the urgency level: low, medium or high (chainable).
func (b *RequestBuilder) Urgency(u string) *RequestBuilder {
	b.fields["urgency"] = u
	return b
}

// Field sets an arbitrary request field (chainable).
func (b *RequestBuilder) Field(key string, val any) *RequestBuilder {
	b.fields[key] = val
	return b
}

// Build materializes the request map.
func (b *RequestBuilder) Build() map[string]any {
	out := make(map[string]any, len(b.fields))
	for k, v := range b.fields {
		out[k] = v
	}
	return out
}
