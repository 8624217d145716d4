package shopify

// GraphQL documents for the Storefront API.
// Fragments keep products and carts identical across every operation so one
// transform serves all of them.

const productFields = `
fragment ProductFields on Product {
  id
  title
  description
  handle
  images(first: 10) {
    edges { node { url altText } }
  }
  priceRange {
    minVariantPrice { amount currencyCode }
  }
  compareAtPriceRange {
    minVariantPrice { amount currencyCode }
  }
  variants(first: 10) {
    edges {
      node {
        id
        title
        price { amount currencyCode }
        availableForSale
      }
    }
  }
}
`

const cartFields = `
fragment CartFields on Cart {
  id
  checkoutUrl
  cost {
    totalAmount { amount currencyCode }
    subtotalAmount { amount currencyCode }
  }
  lines(first: 100) {
    edges {
      node {
        id
        quantity
        merchandise {
          ... on ProductVariant {
            id
            title
            price { amount currencyCode }
            product {
              title
              handle
              images(first: 1) {
                edges { node { url altText } }
              }
            }
          }
        }
      }
    }
  }
}
`

const userErrorFields = `userErrors { field message code }`

const queryProducts = `
query getProducts($first: Int!) {
  products(first: $first) {
    edges { node { ...ProductFields } }
  }
}
` + productFields

const queryProduct = `
query getProduct($handle: String!) {
  product(handle: $handle) { ...ProductFields }
}
` + productFields

const queryCollections = `
query getCollections($first: Int!) {
  collections(first: $first) {
    edges {
      node {
        id
        title
        handle
        description
        image { url altText }
      }
    }
  }
}
`

const queryCollectionProducts = `
query getCollectionProducts($handle: String!, $first: Int!) {
  collection(handle: $handle) {
    products(first: $first) {
      edges { node { ...ProductFields } }
    }
  }
}
` + productFields

const queryCart = `
query getCart($cartId: ID!) {
  cart(id: $cartId) { ...CartFields }
}
` + cartFields

const mutationCartCreate = `
mutation cartCreate {
  cartCreate {
    cart { ...CartFields }
    ` + userErrorFields + `
  }
}
` + cartFields

const mutationCartLinesAdd = `
mutation cartLinesAdd($cartId: ID!, $lines: [CartLineInput!]!) {
  cartLinesAdd(cartId: $cartId, lines: $lines) {
    cart { ...CartFields }
    ` + userErrorFields + `
  }
}
` + cartFields

const mutationCartLinesUpdate = `
mutation cartLinesUpdate($cartId: ID!, $lines: [CartLineUpdateInput!]!) {
  cartLinesUpdate(cartId: $cartId, lines: $lines) {
    cart { ...CartFields }
    ` + userErrorFields + `
  }
}
` + cartFields

const mutationCartLinesRemove = `
mutation cartLinesRemove($cartId: ID!, $lineIds: [ID!]!) {
  cartLinesRemove(cartId: $cartId, lineIds: $lineIds) {
    cart { ...CartFields }
    ` + userErrorFields + `
  }
}
` + cartFields
