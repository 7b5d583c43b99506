package store

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"time"

	"github.com/rs/zerolog/log"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readconcern"
	"go.mongodb.org/mongo-driver/mongo/writeconcern"

	"github.com/sparsekv/smtkv/pkg/merkle"
)

// MongoStore is the production Store, backed by MongoDB (spec §6
// "Persistence layout"). Each contract gets two collections,
// MERKLEDATA_<hex> and DATAHASH_<hex>, plus a single sentinel document in
// the merkle collection holding the current root.
type MongoStore struct {
	client *mongo.Client
	db     *mongo.Database
}

// rootSentinelIndex is out of range for any real tree node (spec §4.B:
// valid non-leaf indices are < 2^H-1), so it cannot collide with a real
// record and is safe to use as the root pointer's key. It is the largest
// value BSON can store as an int64.
const rootSentinelIndex = uint64(1)<<63 - 1

type merkleDoc struct {
	Index uint64 `bson:"index"`
	Hash  string `bson:"hash"`
	Left  string `bson:"left"`
	Right string `bson:"right"`
}

type dataDoc struct {
	Hash string `bson:"hash"`
	Data []byte `bson:"data"`
}

// NewMongoStore dials uri and returns a MongoStore backed by database dbName.
func NewMongoStore(ctx context.Context, uri, dbName string) (*MongoStore, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("connect to mongodb: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		return nil, fmt.Errorf("ping mongodb: %w", err)
	}
	return &MongoStore{client: client, db: client.Database(dbName)}, nil
}

// Close disconnects the underlying client.
func (s *MongoStore) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}

func (s *MongoStore) merkleCollection(contract ContractID) *mongo.Collection {
	return s.db.Collection("MERKLEDATA_" + contract.Hex())
}

func (s *MongoStore) dataCollection(contract ContractID) *mongo.Collection {
	return s.db.Collection("DATAHASH_" + contract.Hex())
}

func (s *MongoStore) FindMerkle(ctx context.Context, contract ContractID, index uint64, hash *big.Int) (*merkle.Record, bool, error) {
	var doc merkleDoc
	err := s.merkleCollection(contract).FindOne(ctx, bson.M{"index": index, "hash": hash.String()}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("find merkle record: %w", err)
	}
	rec, err := recordFromDoc(doc)
	if err != nil {
		return nil, false, err
	}
	return &rec, true, nil
}

func (s *MongoStore) InsertMerkle(ctx context.Context, contract ContractID, record merkle.Record) (merkle.Record, error) {
	if existing, found, err := s.FindMerkle(ctx, contract, record.Index, record.Hash); err != nil {
		return merkle.Record{}, err
	} else if found {
		return *existing, nil
	}
	doc := docFromRecord(record)
	_, err := s.merkleCollection(contract).InsertOne(ctx, doc)
	if mongo.IsDuplicateKeyError(err) {
		existing, found, ferr := s.FindMerkle(ctx, contract, record.Index, record.Hash)
		if ferr != nil {
			return merkle.Record{}, ferr
		}
		if found {
			return *existing, nil
		}
	}
	if err != nil {
		return merkle.Record{}, fmt.Errorf("insert merkle record: %w", err)
	}
	return record, nil
}

func (s *MongoStore) FindData(ctx context.Context, contract ContractID, hash *big.Int) (*merkle.DataRecord, bool, error) {
	var doc dataDoc
	err := s.dataCollection(contract).FindOne(ctx, bson.M{"hash": hash.String()}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("find data record: %w", err)
	}
	h, ok := new(big.Int).SetString(doc.Hash, 10)
	if !ok {
		return nil, false, fmt.Errorf("corrupt data record hash %q", doc.Hash)
	}
	return &merkle.DataRecord{Hash: h, Data: doc.Data}, true, nil
}

func (s *MongoStore) InsertData(ctx context.Context, contract ContractID, record merkle.DataRecord) (merkle.DataRecord, error) {
	if existing, found, err := s.FindData(ctx, contract, record.Hash); err != nil {
		return merkle.DataRecord{}, err
	} else if found {
		return *existing, nil
	}
	doc := dataDoc{Hash: record.Hash.String(), Data: record.Data}
	_, err := s.dataCollection(contract).InsertOne(ctx, doc)
	if mongo.IsDuplicateKeyError(err) {
		existing, found, ferr := s.FindData(ctx, contract, record.Hash)
		if ferr != nil {
			return merkle.DataRecord{}, ferr
		}
		if found {
			return *existing, nil
		}
	}
	if err != nil {
		return merkle.DataRecord{}, fmt.Errorf("insert data record: %w", err)
	}
	return record, nil
}

func (s *MongoStore) GetRoot(ctx context.Context, contract ContractID) (merkle.Record, error) {
	var doc merkleDoc
	err := s.merkleCollection(contract).FindOne(ctx, bson.M{"index": rootSentinelIndex}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return merkle.DefaultRecord(0), nil
	}
	if err != nil {
		return merkle.Record{}, fmt.Errorf("find root: %w", err)
	}
	rec, err := recordFromDoc(doc)
	if err != nil {
		return merkle.Record{}, err
	}
	rec.Index = 0
	return rec, nil
}

func (s *MongoStore) SetRoot(ctx context.Context, contract ContractID, record merkle.Record) error {
	doc := docFromRecord(record)
	doc.Index = rootSentinelIndex
	opts := options.Replace().SetUpsert(true)
	_, err := s.merkleCollection(contract).ReplaceOne(ctx, bson.M{"index": rootSentinelIndex}, doc, opts)
	if err != nil {
		return fmt.Errorf("set root: %w", err)
	}
	return nil
}

// WithTransaction runs fn inside a causally-consistent majority-read,
// majority-write session, retrying on transient transaction errors and on
// UnknownTransactionCommitResult per the MongoDB driver's documented retry
// loop (spec §4.C "transactional guarantees").
func (s *MongoStore) WithTransaction(ctx context.Context, _ ContractID, fn func(ctx context.Context) error) error {
	sess, err := s.client.StartSession()
	if err != nil {
		return fmt.Errorf("start session: %w", err)
	}
	defer sess.EndSession(ctx)

	txnOpts := options.Transaction().
		SetReadConcern(readconcern.Majority()).
		SetWriteConcern(writeconcern.Majority())

	_, err = sess.WithTransaction(ctx, func(sc mongo.SessionContext) (interface{}, error) {
		return nil, fn(sc)
	}, txnOpts)
	if err != nil {
		return fmt.Errorf("transaction: %w", err)
	}
	return nil
}

func (s *MongoStore) Drop(ctx context.Context, contract ContractID) error {
	if err := s.merkleCollection(contract).Drop(ctx); err != nil {
		return fmt.Errorf("drop merkle collection: %w", err)
	}
	if err := s.dataCollection(contract).Drop(ctx); err != nil {
		return fmt.Errorf("drop data collection: %w", err)
	}
	return nil
}

// EnsureIndexes creates the unique indexes the collection-level idempotent
// upsert semantics rely on (invariant I4) under concurrent writers. Safe to
// call repeatedly. Nothing in this repository calls it; without these
// indexes InsertMerkle and InsertData still check for an existing record
// before inserting, but two concurrent inserts of the same key can both
// succeed.
func (s *MongoStore) EnsureIndexes(ctx context.Context, contract ContractID) error {
	start := time.Now()
	_, err := s.merkleCollection(contract).Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "index", Value: 1}, {Key: "hash", Value: 1}},
		Options: options.Index().SetUnique(true).SetName("index_hash_unique"),
	})
	if err != nil {
		return fmt.Errorf("create merkle index: %w", err)
	}
	_, err = s.dataCollection(contract).Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "hash", Value: 1}},
		Options: options.Index().SetUnique(true).SetName("hash_unique"),
	})
	if err != nil {
		return fmt.Errorf("create data index: %w", err)
	}
	log.Debug().Str("contract", contract.Hex()).Dur("elapsed", time.Since(start)).Msg("ensured store indexes")
	return nil
}

func docFromRecord(r merkle.Record) merkleDoc {
	left, right := "0", "0"
	if r.Left != nil {
		left = r.Left.String()
	}
	if r.Right != nil {
		right = r.Right.String()
	}
	return merkleDoc{Index: r.Index, Hash: r.Hash.String(), Left: left, Right: right}
}

func recordFromDoc(doc merkleDoc) (merkle.Record, error) {
	hash, ok := new(big.Int).SetString(doc.Hash, 10)
	if !ok {
		return merkle.Record{}, fmt.Errorf("corrupt merkle record hash %q", doc.Hash)
	}
	left, ok := new(big.Int).SetString(doc.Left, 10)
	if !ok {
		return merkle.Record{}, fmt.Errorf("corrupt merkle record left %q", doc.Left)
	}
	right, ok := new(big.Int).SetString(doc.Right, 10)
	if !ok {
		return merkle.Record{}, fmt.Errorf("corrupt merkle record right %q", doc.Right)
	}
	return merkle.Record{Index: doc.Index, Hash: hash, Left: left, Right: right}, nil
}
