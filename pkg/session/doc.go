/*
Package session implements session management and persistence orchestration.

Each session has two locks. The turn gate (Serialize) is held for a whole
conversational turn so turns on one session run strictly in order. The state
lock (Update) is held only while a session is loaded, modified and saved, and
never while a skill handler runs. An optional DistributedLocker extends both
across replicas.
*/
package session
