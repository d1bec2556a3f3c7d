package shopify

const cartFields = `
fragment CartFields on Cart {
  id
  checkoutUrl
  cost {
    subtotalAmount {
      amount
    }
  }
  discountCodes {
    code
    applicable
  }
  lines(first: 100) {
    edges {
      node {
        id
        quantity
        sellingPlanAllocation {
          sellingPlan {
            id
            name
          }
        }
        merchandise {
          ... on ProductVariant {
            ...VariantFields
            image {
              originalSrc
            }
            product {
              id
              title
              handle
              variants(first: 50) {
                edges {
                  node {
                    ...VariantFields
                  }
                }
              }
            }
          }
        }
      }
    }
  }
}

fragment VariantFields on ProductVariant {
  id
  quantityAvailable
  priceV2 {
    amount
  }
  selectedOptions {
    name
    value
  }
}
`

const productFields = `
fragment ProductFields on Product {
  id
  title
  description
  tags
  handle
  availableForSale
  priceRange {
    maxVariantPrice {
      amount
    }
  }
  media(first: 10) {
    edges {
      node {
        ... on MediaImage {
          image {
            originalSrc
            altText
          }
        }
      }
    }
  }
  options {
    name
    values
  }
  variants(first: 50) {
    edges {
      node {
        id
        title
        availableForSale
        quantityAvailable
        priceV2 {
          amount
        }
        selectedOptions {
          name
          value
        }
        sellingPlanAllocations(first: 10) {
          edges {
            node {
              sellingPlan {
                id
                name
              }
            }
          }
        }
      }
    }
  }
}
`

const userErrorFields = `
    userErrors {
      field
      message
      code
    }`

const cartCreateMutation = `mutation cartCreate {
  cartCreate {
    cart {
      ...CartFields
    }` + userErrorFields + `
  }
}
` + cartFields

const cartCheckQuery = `query cartCheck($cartId: ID!) {
  cart(id: $cartId) {
    id
  }
}`

const cartFetchQuery = `query cartFetch($cartId: ID!) {
  cart(id: $cartId) {
    ...CartFields
  }
}
` + cartFields

const cartLinesAddMutation = `mutation cartLinesAdd($cartId: ID!, $lines: [CartLineInput!]!) {
  cartLinesAdd(cartId: $cartId, lines: $lines) {
    cart {
      ...CartFields
    }` + userErrorFields + `
  }
}
` + cartFields

const cartLinesUpdateMutation = `mutation cartLinesUpdate($cartId: ID!, $lines: [CartLineUpdateInput!]!) {
  cartLinesUpdate(cartId: $cartId, lines: $lines) {
    cart {
      id
    }` + userErrorFields + `
  }
}`

const cartLinesRemoveMutation = `mutation cartLinesRemove($cartId: ID!, $lineIds: [ID!]!) {
  cartLinesRemove(cartId: $cartId, lineIds: $lineIds) {
    cart {
      ...CartFields
    }` + userErrorFields + `
  }
}
` + cartFields

const cartDiscountCodesUpdateMutation = `mutation cartDiscountCodesUpdate($cartId: ID!, $discountCodes: [String!]) {
  cartDiscountCodesUpdate(cartId: $cartId, discountCodes: $discountCodes) {
    cart {
      ...CartFields
    }` + userErrorFields + `
  }
}
` + cartFields

const productsQuery = `query products($query: String) {
  products(first: 50, query: $query) {
    edges {
      node {
        ...ProductFields
      }
    }
  }
}
` + productFields

const productByHandleQuery = `query productByHandle($handle: String!) {
  productByHandle(handle: $handle) {
    ...ProductFields
  }
}
` + productFields

const productByIDQuery = `query product($id: ID!) {
  product(id: $id) {
    ...ProductFields
  }
}
` + productFields

const collectionByHandleQuery = `query collectionByHandle($collectionHandle: String!) {
  collectionByHandle(handle: $collectionHandle) {
    title
    products(first: 50) {
      edges {
        node {
          ...ProductFields
        }
      }
    }
  }
}
` + productFields

const discountCodeBasicCreateMutation = `mutation createDiscount($basicCodeDiscount: DiscountCodeBasicInput!) {
  discountCodeBasicCreate(basicCodeDiscount: $basicCodeDiscount) {
    codeDiscountNode {
      id
      codeDiscount {
        ... on DiscountCodeBasic {
          startsAt
          endsAt
        }
      }
    }` + userErrorFields + `
  }
}`
