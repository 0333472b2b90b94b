package harvest

import (
	"context"

	"github.com/agentstation/harvester/pkg/catalog"
	"github.com/agentstation/harvester/pkg/dcat"
)

// Transformer adjusts a converted dataset before it is stored. It runs after
// conversion and name derivation and before organization resolution, so it
// may override any field, including the owning organization.
type Transformer interface {
	Transform(ctx context.Context, ds *catalog.Dataset, rec *dcat.Dataset, op Operation) (*catalog.Dataset, error)
}

// TransformerFunc adapts a function to the Transformer interface.
type TransformerFunc func(ctx context.Context, ds *catalog.Dataset, rec *dcat.Dataset, op Operation) (*catalog.Dataset, error)

// Transform implements Transformer.
func (f TransformerFunc) Transform(ctx context.Context, ds *catalog.Dataset, rec *dcat.Dataset, op Operation) (*catalog.Dataset, error) {
	return f(ctx, ds, rec, op)
}

// NopTransformer returns datasets unchanged.
type NopTransformer struct{}

// Transform implements Transformer.
func (NopTransformer) Transform(_ context.Context, ds *catalog.Dataset, _ *dcat.Dataset, _ Operation) (*catalog.Dataset, error) {
	return ds, nil
}

// Chain runs transformers in order.
func Chain(ts ...Transformer) Transformer {
	return TransformerFunc(func(ctx context.Context, ds *catalog.Dataset, rec *dcat.Dataset, op Operation) (*catalog.Dataset, error) {
		var err error
		for _, t := range ts {
			if ds, err = t.Transform(ctx, ds, rec, op); err != nil {
				return nil, err
			}
		}
		return ds, nil
	})
}
