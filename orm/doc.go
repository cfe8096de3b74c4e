/*
Package orm provides an easy to use db wrapper

Break state space into prefixed sections called Buckets.
* Each bucket contains only one type of object.
* It has a primary key (which may be composite),
and may possess secondary indexes (1:N).
* Easy queries for one and iteration over a key prefix.

Models are serialized with go-amino. Secondary indexes are stored natively in
the database, one entry per indexed value and referenced key, so that
updating an index never rewrites entries of unrelated objects.
*/
package orm
