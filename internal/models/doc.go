// Package models defines the core domain models for groupdo.
//
// # Models
//
//   - User: a registered account and the root principal of every request
//   - Todo: a to-do entry owned by exactly one User
//   - Group: a named set of Users sharing an inventory
//   - Item: an inventory entry belonging to exactly one Group
//
// # Design Principles
//
//  1. **IDs, not pointers**: relationships are expressed with numeric IDs
//     (Todo.UserID, Item.GroupID) so models stay flat and easy to scan.
//  2. **Store-assigned identity**: ID and CreatedAt are filled by the store on insert.
//  3. **No secrets on the wire**: password hashes never leave the storage and
//     auth layers; reporting types copy only public fields.
package models
