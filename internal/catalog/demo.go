// Package catalog serves products to the storefront, from the commerce
// backend when one is configured and from a fixed demo list otherwise.
package catalog

import "storefront/internal/model"

// DemoCurrency is the currency of every demo product.
const DemoCurrency = "USD"

// demoProducts is the fallback catalog and the list checkout validates
// against. IDs equal handles so either can be used for lookups.
var demoProducts = []model.Product{
	{
		ID:          "wireless-headphones",
		Handle:      "wireless-headphones",
		Name:        "Premium Wireless Headphones",
		Description: "High-quality wireless headphones with noise cancellation",
		Price:       29999,
		Currency:    DemoCurrency,
		Image:       "/premium-wireless-headphones-on-white-background-pr.jpg",
	},
	{
		ID:          "smart-watch",
		Handle:      "smart-watch",
		Name:        "Smart Fitness Watch",
		Description: "Track your fitness goals with this advanced smartwatch",
		Price:       19999,
		Currency:    DemoCurrency,
		Image:       "/modern-smart-fitness-watch-black-product-photograp.jpg",
	},
	{
		ID:          "minimalist-backpack",
		Handle:      "minimalist-backpack",
		Name:        "Minimalist Backpack",
		Description: "Sleek and functional backpack for everyday use",
		Price:       8999,
		Currency:    DemoCurrency,
		Image:       "/minimalist-black-backpack-product-photography-whit.jpg",
	},
	{
		ID:          "wireless-charger",
		Handle:      "wireless-charger",
		Name:        "Wireless Charging Pad",
		Description: "Fast wireless charging for all your devices",
		Price:       4999,
		Currency:    DemoCurrency,
		Image:       "/sleek-wireless-charging-pad-black-product-photogra.jpg",
	},
	{
		ID:          "bluetooth-speaker",
		Handle:      "bluetooth-speaker",
		Name:        "Portable Bluetooth Speaker",
		Description: "Premium sound quality in a compact design",
		Price:       12999,
		Currency:    DemoCurrency,
		Image:       "/portable-bluetooth-speaker-black-product-photograp.jpg",
	},
	{
		ID:          "usb-c-hub",
		Handle:      "usb-c-hub",
		Name:        "USB-C Hub",
		Description: "Expand your connectivity with multiple ports",
		Price:       6999,
		Currency:    DemoCurrency,
		Image:       "/modern-usb-c-hub-aluminum-product-photography-whit.jpg",
	},
}

// Demo returns a copy of the demo catalog.
func Demo() []model.Product {
	out := make([]model.Product, len(demoProducts))
	copy(out, demoProducts)
	return out
}

// FindDemo looks a demo product up by ID or handle.
func FindDemo(idOrHandle string) (model.Product, bool) {
	for _, p := range demoProducts {
		if p.ID == idOrHandle || p.Handle == idOrHandle {
			return p, true
		}
	}
	return model.Product{}, false
}
