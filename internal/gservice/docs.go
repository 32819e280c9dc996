package gservice

import (
	"context"
	"fmt"

	"google.golang.org/api/docs/v1"
)

func NewDocs(g *Google) *Docs {
	return &Docs{g: g}
}

type Docs struct {
	g *Google
}

func (d *Docs) GetDocument(ctx context.Context, documentID string) (*docs.Document, error) {
	svc, err := d.newSvc(ctx)
	if err != nil {
		return nil, fmt.Errorf("newSvc failed: %w", err)
	}

	doc, err := svc.Documents.Get(documentID).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("documents.Get failed: %w", err)
	}

	return doc, nil
}

func (d *Docs) newSvc(ctx context.Context) (*docs.Service, error) {
	opts, err := d.g.clientOptions(ctx)
	if err != nil {
		return nil, err
	}

	svc, err := docs.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("docs.NewService failed: %w", err)
	}

	return svc, nil
}
