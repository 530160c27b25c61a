package domain

import "strings"

// DefaultImage is shown for products without a usable image reference.
const DefaultImage = "default.png"

// DefaultPaymentMethod is recorded when checkout does not name one.
const DefaultPaymentMethod = "cod"

// ResolveImage returns image, or DefaultImage when it is blank.
func ResolveImage(image string) string {
	image = strings.TrimSpace(image)
	if image == "" {
		return DefaultImage
	}
	return image
}

// ResolvePaymentMethod returns the trimmed method, or DefaultPaymentMethod
// when it is blank. The value is otherwise opaque.
func ResolvePaymentMethod(method string) string {
	method = strings.TrimSpace(method)
	if method == "" {
		return DefaultPaymentMethod
	}
	return method
}
