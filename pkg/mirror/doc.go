/*
The mirror package implements dirmirror's reconciliation algorithm. It makes a
replica directory tree an exact copy of a source directory tree.

There are two trees:
1) The source tree -- This tree is authoritative and is never modified.
2) The replica tree -- This tree is modified until every path in the source
   exists in the replica with the same kind, every replica file has the same
   contents as its source file, and nothing else exists in the replica.

Each directory pair is handled in two steps. Diff compares the immediate
children of the pair and classifies each name into a Decision. The Reconciler
then applies the decisions, visiting subdirectory pairs depth-first before
moving on to the next decision of the parent. Deletions of a level are always
applied after the creates, updates, and descents of that level.

File contents are compared by their Fingerprint. Both sides are hashed in
full on every pass; size and modification time are never trusted to skip a
comparison.

Every mutation is reported as a SyncEvent. A failure to handle one entry is
reported as an OperationFailed event and doesn't affect its siblings.
*/
package mirror
