package i18n

var spanish = Dictionary{
	Nav: NavStrings{
		Rooms: "Espacios",
		Shop:  "Tienda",
		About: "Nosotros",
		Cart:  "Carrito",
	},
	Product: ProductStrings{
		AddToCart:      "Agregar al carrito",
		UnitPrice:      "Precio unitario",
		Total:          "Total",
		Savings:        "Ahorro",
		Quantity:       "Cantidad",
		Unit:           "unidad",
		Units:          "unidades",
		Stock:          "disponibles",
		OutOfStock:     "Agotado",
		From:           "Desde",
		Materials:      "Materiales",
		Care:           "Cuidados",
		Dimensions:     "Dimensiones",
		Weight:         "Peso",
		HeatSafe:       "Apto para calor",
		ShippingNotes:  "Despacho",
		PackPricing:    "Precio por pack",
		YouSave:        "Ahorras {amount}",
		PerUnit:        "c/u",
		ViewProduct:    "Ver producto",
		NotFound:       "Producto no encontrado",
		InvalidQty:     "La cantidad debe ser un número entero entre 1 y 999",
		PricingProblem: "El precio de este producto no está disponible",
	},
	Cart: CartStrings{
		Title:     "Tu carrito",
		Empty:     "Tu carrito está vacío",
		Subtotal:  "Subtotal",
		Total:     "Total",
		Checkout:  "Ir a pagar",
		Remove:    "Eliminar",
		Continue:  "Seguir comprando",
		ItemAdded: "Producto agregado al carrito",
	},
	Checkout: CheckoutStrings{
		Title:             "Finalizar compra",
		Email:             "Correo electrónico",
		ShippingAddress:   "Dirección de despacho",
		PlaceOrder:        "Confirmar pedido",
		Processing:        "Procesando...",
		Success:           "Pedido procesado exitosamente",
		EstimatedDelivery: "3-5 días hábiles",
		EmptyCart:         "El carrito está vacío",
		Failed:            "Error al procesar el pedido",
	},
	Errors: ErrorStrings{
		Retry:        "No pudimos completar la operación, inténtalo nuevamente",
		InvalidInput: "Datos inválidos",
		RoomNotFound: "Espacio no encontrado",
		Internal:     "Ocurrió un error inesperado",
	},
	Email: EmailStrings{
		OrderConfirmedSubject: "Casa Greda: pedido {orderId} confirmado",
		OrderConfirmedIntro:   "Gracias por tu compra. Tu pedido {orderId} llegará en {delivery}.",
		OrderTotal:            "Total del pedido: {total}",
	},
	Common: CommonStrings{
		Loading: "Cargando...",
		Close:   "Cerrar",
		Back:    "Volver",
	},
}

var english = Dictionary{
	Nav: NavStrings{
		Rooms: "Rooms",
		Shop:  "Shop",
		About: "About",
		Cart:  "Cart",
	},
	Product: ProductStrings{
		AddToCart:      "Add to cart",
		UnitPrice:      "Unit price",
		Total:          "Total",
		Savings:        "Savings",
		Quantity:       "Quantity",
		Unit:           "unit",
		Units:          "units",
		Stock:          "in stock",
		OutOfStock:     "Out of stock",
		From:           "From",
		Materials:      "Materials",
		Care:           "Care",
		Dimensions:     "Dimensions",
		Weight:         "Weight",
		HeatSafe:       "Heat safe",
		ShippingNotes:  "Shipping",
		PackPricing:    "Pack pricing",
		YouSave:        "You save {amount}",
		PerUnit:        "each",
		ViewProduct:    "View product",
		NotFound:       "Product not found",
		InvalidQty:     "Quantity must be a whole number between 1 and 999",
		PricingProblem: "Pricing for this product is unavailable",
	},
	Cart: CartStrings{
		Title:     "Your cart",
		Empty:     "Your cart is empty",
		Subtotal:  "Subtotal",
		Total:     "Total",
		Checkout:  "Checkout",
		Remove:    "Remove",
		Continue:  "Continue shopping",
		ItemAdded: "Added to cart",
	},
	Checkout: CheckoutStrings{
		Title:             "Checkout",
		Email:             "Email",
		ShippingAddress:   "Shipping address",
		PlaceOrder:        "Place order",
		Processing:        "Processing...",
		Success:           "Order processed successfully",
		EstimatedDelivery: "3-5 business days",
		EmptyCart:         "Cart is empty",
		Failed:            "Error processing checkout",
	},
	Errors: ErrorStrings{
		Retry:        "The operation failed, please retry",
		InvalidInput: "Invalid input",
		RoomNotFound: "Room not found",
		Internal:     "Something went wrong",
	},
	Email: EmailStrings{
		OrderConfirmedSubject: "Casa Greda: order {orderId} confirmed",
		OrderConfirmedIntro:   "Thank you for your purchase. Order {orderId} will arrive in {delivery}.",
		OrderTotal:            "Order total: {total}",
	},
	Common: CommonStrings{
		Loading: "Loading...",
		Close:   "Close",
		Back:    "Back",
	},
}
