package values

import "time"

// IntentKeywords is one row of the intent table. Table order is the tie-break order.
type IntentKeywords struct {
	Name     string   `yaml:"name"`
	Keywords []string `yaml:"keywords"`
}

type EngineValues struct {
	ConfidenceFloor          float64          `yaml:"confidence_floor"`
	FuzzyThreshold           float64          `yaml:"fuzzy_threshold"`
	ExactWeight              float64          `yaml:"exact_weight"`
	FuzzyWeight              float64          `yaml:"fuzzy_weight"`
	FuzzyMinLength           int              `yaml:"fuzzy_min_length"`
	MatchOverlap             float64          `yaml:"match_overlap"`
	MaxQuantity              int              `yaml:"max_quantity"`
	CatalogExcerpt           int              `yaml:"catalog_excerpt"`
	ListRows                 int              `yaml:"list_rows"`
	NegativeConfirmsCheckout bool             `yaml:"negative_confirms_checkout"`
	Upsell                   bool             `yaml:"upsell"`
	Intents                  []IntentKeywords `yaml:"intents"`
}

type RecoveryValues struct {
	Enabled       bool          `yaml:"enabled"`
	Interval      time.Duration `yaml:"interval"`
	IdleAfter     time.Duration `yaml:"idle_after"`
	RenotifyAfter time.Duration `yaml:"renotify_after"`
}

func DefaultEngineValues() EngineValues {
	return EngineValues{
		ConfidenceFloor:          0.55,
		FuzzyThreshold:           0.82,
		ExactWeight:              1.2,
		FuzzyWeight:              0.8,
		FuzzyMinLength:           4,
		MatchOverlap:             0.6,
		MaxQuantity:              99,
		CatalogExcerpt:           15,
		ListRows:                 10,
		NegativeConfirmsCheckout: true,
		Upsell:                   true,
		Intents:                  DefaultIntents(),
	}
}

func DefaultRecoveryValues() RecoveryValues {
	return RecoveryValues{
		Enabled:       false,
		Interval:      10 * time.Minute,
		IdleAfter:     time.Hour,
		RenotifyAfter: 24 * time.Hour,
	}
}

// DefaultIntents is the built-in Spanish keyword table. Checkout and negative come
// before add_to_cart so "quiero pagar" and "no quiero ..." win their ties.
func DefaultIntents() []IntentKeywords {
	return []IntentKeywords{
		{Name: "greeting", Keywords: []string{"hola", "ola", "buenas", "buenos", "saludos", "hey", "hello", "hi"}},
		{Name: "catalog", Keywords: []string{"catalogo", "productos", "producto", "menu", "tienda", "ofertas", "opciones", "categorias", "tienes", "venden"}},
		{Name: "clear_cart", Keywords: []string{"vaciar", "borrar", "limpiar", "eliminar", "cancelar", "quitar"}},
		{Name: "view_cart", Keywords: []string{"carrito", "cesta", "bolsa", "pedido", "resumen"}},
		{Name: "checkout", Keywords: []string{"pagar", "pago", "checkout", "finalizar", "confirmar", "link", "cuenta"}},
		{Name: "negative", Keywords: []string{"no", "nada", "nop", "tampoco", "nunca"}},
		{Name: "add_to_cart", Keywords: []string{"quiero", "agregar", "agrega", "agregame", "anadir", "anade", "sumar", "llevo", "dame", "comprar", "poner"}},
		{Name: "positive", Keywords: []string{"si", "claro", "ok", "dale", "perfecto", "bueno", "genial", "vale", "listo", "excelente"}},
	}
}
