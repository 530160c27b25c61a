// Package harness runs YAML scenarios against a real storefront.
//
// Each scenario gets a fresh database file, a deterministic clock and a
// deterministic checkout token sequence, so two runs of the same scenario
// produce identical traces.
//
// # Scenario Format
//
//	name: checkout_clears_cart
//	description: "Checking out moves the cart into an order"
//	seed: true
//	setup:
//	  - action: Account.addUser
//	    args: { username: lan, password: secret, role: user }
//	flow:
//	  - invoke: Cart.addToCart
//	    args: { user_id: 2, product_id: 1, quantity: 3 }
//	    expect:
//	      case: Success
//	      result: { quantity: 3 }
//	  - invoke: Order.updateStatus
//	    args: { order_id: 1, status: completed }
//	    expect: { case: INVALID_TRANSITION }
//	assertions:
//	  - type: trace_count
//	    action: Order.checkout
//	    count: 1
//	  - type: final_state
//	    table: orders
//	    where: { id: 1 }
//	    expect: { status: pending, total_amount: "750000" }
//
// An expected case is "Success" or an error code (VALIDATION, NOT_FOUND,
// CONFLICT, FORBIDDEN, INVALID_TRANSITION, STORAGE). Expected results are
// matched as a subset of the operation's JSON output; decimals appear as
// strings.
//
// # Assertion Types
//
//   - trace_contains: an action was invoked with matching args
//   - trace_order: actions were invoked in the given order
//   - trace_count: an action was invoked exactly N times
//   - final_state: a single table row has the expected column values
package harness
