package tessera_test

import (
	"context"
	"fmt"
	"log"

	"github.com/aretw0/tessera"
	"github.com/aretw0/tessera/pkg/domain"
	"github.com/aretw0/tessera/pkg/editor"
	"github.com/aretw0/tessera/pkg/render"
)

// ExampleNew creates a page from the built-in landing template, edits it and
// renders it with override data.
func ExampleNew() {
	eng, err := tessera.New()
	if err != nil {
		log.Fatal(err)
	}

	ctx := context.Background()
	if _, err := eng.CreatePage(ctx, "acme/home", "landing"); err != nil {
		log.Fatal(err)
	}

	view, err := eng.Sessions().Do(ctx, "acme/home", func(s *editor.Session) (editor.View, error) {
		return s.PatchProps("hero", map[string]any{"title": "Hello"})
	})
	if err != nil {
		log.Fatal(err)
	}

	tree := eng.Render(view.Schema, render.Overrides{"hero": {"subtitle": "Just for you"}})
	hero, _ := tree.Find("hero")
	fmt.Println(hero.Children[0].Text)
	fmt.Println(hero.Children[1].Text)
	fmt.Println(view.CanUndo, view.Dirty)

	// Output:
	// Hello
	// Just for you
	// true true
}

// ExampleEngine_Render shows the placeholder rendered for an unregistered type.
func ExampleEngine_Render() {
	eng, err := tessera.New()
	if err != nil {
		log.Fatal(err)
	}

	tree := eng.Render(domain.NewSchema(domain.Node{ID: "x", Type: "Carousel"}), nil)
	fmt.Println(tree.Elements[0].Text)

	// Output:
	// Unknown component: Carousel
}
