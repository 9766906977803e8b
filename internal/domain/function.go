package domain

type FunctionName string

const (
	FuncAddProduct     FunctionName = "addProduct"
	FuncRemoveProduct  FunctionName = "removeProduct"
	FuncUpdateQuantity FunctionName = "updateQuantity"
	FuncClearCart      FunctionName = "clearCart"
)

// TextCommandPrefix marks payloads that already carry a transcript instead of audio.
const TextCommandPrefix = "__TEXT__:"

// FunctionCall is a cart operation chosen by the model. Arguments holds the
// raw JSON object text exactly as the model produced it.
type FunctionCall struct {
	Name      FunctionName `json:"process"`
	Arguments string       `json:"args"`
}

// FunctionSpec describes one callable function to the completion endpoint.
// Parameters is a JSON-schema object.
type FunctionSpec struct {
	Name        FunctionName   `json:"name"`
	Description string         `json:"description"`
	Parameters  map[string]any `json:"parameters"`
}
