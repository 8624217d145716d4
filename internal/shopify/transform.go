package shopify

import "storefront/internal/model"

func toProduct(p product) model.Product {
	out := model.Product{
		ID:             p.ID,
		Handle:         p.Handle,
		Name:           p.Title,
		Description:    p.Description,
		Price:          model.ParseCents(p.PriceRange.MinVariantPrice.Amount),
		CompareAtPrice: model.ParseCents(p.CompareAtPriceRange.MinVariantPrice.Amount),
		Currency:       p.PriceRange.MinVariantPrice.CurrencyCode,
	}

	for _, img := range p.Images.nodes() {
		out.Images = append(out.Images, model.Image{URL: img.URL, AltText: img.AltText})
	}
	if len(out.Images) > 0 {
		out.Image = out.Images[0].URL
	}

	for _, v := range p.Variants.nodes() {
		out.Variants = append(out.Variants, model.Variant{
			ID:               v.ID,
			Title:            v.Title,
			Price:            model.ParseCents(v.Price.Amount),
			AvailableForSale: v.AvailableForSale,
		})
	}

	return out
}

func toProducts(ps []product) []model.Product {
	out := make([]model.Product, 0, len(ps))
	for _, p := range ps {
		out = append(out, toProduct(p))
	}
	return out
}

func toCollection(c collection) model.Collection {
	out := model.Collection{
		ID:          c.ID,
		Handle:      c.Handle,
		Title:       c.Title,
		Description: c.Description,
	}
	if c.Image != nil {
		out.Image = &model.Image{URL: c.Image.URL, AltText: c.Image.AltText}
	}
	return out
}

func toRemoteCart(c *cart) *model.RemoteCart {
	if c == nil {
		return nil
	}

	out := &model.RemoteCart{
		ID:          c.ID,
		Total:       model.ParseCents(c.Cost.TotalAmount.Amount),
		Currency:    c.Cost.TotalAmount.CurrencyCode,
		CheckoutURL: c.CheckoutURL,
		Lines:       []model.CartLine{},
	}

	for _, l := range c.Lines.nodes() {
		line := model.CartLine{
			ID:            l.ID,
			MerchandiseID: l.Merchandise.ID,
			Quantity:      l.Quantity,
			Price:         model.ParseCents(l.Merchandise.Price.Amount),
			Title:         l.Merchandise.Product.Title,
			Handle:        l.Merchandise.Product.Handle,
		}
		if imgs := l.Merchandise.Product.Images.nodes(); len(imgs) > 0 {
			line.Image = imgs[0].URL
		}
		out.Lines = append(out.Lines, line)
	}

	return out
}
