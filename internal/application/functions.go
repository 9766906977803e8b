package application

import "voice-cart/internal/domain"

// CartFunctions builds the function schema offered to the model. Product
// names are constrained to the catalog.
func CartFunctions(productNames []string) []domain.FunctionSpec {
	names := make([]string, len(productNames))
	copy(names, productNames)

	nameProp := func(description string) map[string]any {
		return map[string]any{
			"type":        "string",
			"description": description,
			"enum":        names,
		}
	}

	return []domain.FunctionSpec{
		{
			Name:        domain.FuncAddProduct,
			Description: "Add given product to the cart from the list of available products.",
			Parameters: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"name": nameProp("The name of the product to add to the cart. Choose from the given list of products."),
					"quantity": map[string]any{
						"type":        "number",
						"description": "The quantity of the product to add.",
					},
				},
				"required": []string{"name", "quantity"},
			},
		},
		{
			Name:        domain.FuncRemoveProduct,
			Description: "Remove a product in the cart.",
			Parameters: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"name": nameProp("The name of the product to remove from the cart."),
				},
				"required": []string{"name"},
			},
		},
		{
			Name:        domain.FuncUpdateQuantity,
			Description: "Update the quantity of the product which is already added in the cart.",
			Parameters: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"name": nameProp("The name of the product to update from the cart."),
					"quantity": map[string]any{
						"type":        "number",
						"description": "The quantity of the product to update.",
					},
				},
				"required": []string{"name", "quantity"},
			},
		},
		{
			Name:        domain.FuncClearCart,
			Description: "Clear and remove all the items in the cart.",
			Parameters: map[string]any{
				"type":       "object",
				"properties": map[string]any{},
			},
		},
	}
}
