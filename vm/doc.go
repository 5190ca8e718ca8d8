// Package vm implements the Sprat runtime.
//
// This package contains:
//   - The Object payload union and borrow-checked cells
//   - VTable-based method dispatch
//   - Environments, closures and the tree-walking evaluator
//   - Classes, interfaces and modules
//   - Primitive class implementations
package vm
