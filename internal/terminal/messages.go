package terminal

// Messages are the cashier-facing notice texts.
type Messages struct {
	ProductNotFound    string
	CartEmpty          string
	ConfirmClear       string
	SubmissionInFlight string
	SaleErrorPrefix    string
	SaleErrorFallback  string
}

var English = Messages{
	ProductNotFound:    "Product not found",
	CartEmpty:          "The cart is empty!",
	ConfirmClear:       "Do you really want to clear the cart?",
	SubmissionInFlight: "The sale is still being saved, please wait",
	SaleErrorPrefix:    "Error: ",
	SaleErrorFallback:  "Something went wrong while saving the invoice",
}

var Arabic = Messages{
	ProductNotFound:    "المنتج غير موجود",
	CartEmpty:          "السلة فارغة!",
	ConfirmClear:       "هل تريد مسح السلة فعلاً؟",
	SubmissionInFlight: "جاري حفظ الفاتورة، برجاء الانتظار",
	SaleErrorPrefix:    "خطأ: ",
	SaleErrorFallback:  "حدث خطأ في حفظ الفاتورة",
}

func MessagesFor(locale string) Messages {
	if locale == "ar" {
		return Arabic
	}
	return English
}
